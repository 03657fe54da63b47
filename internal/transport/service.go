package transport

import (
	"fmt"
	"net/http"
)

// Action is one of the four smart HTTP exchanges a git client performs
type Action int

const (
	// AdvertiseUploadPack lists refs before a fetch
	AdvertiseUploadPack Action = iota
	// ExecuteUploadPack negotiates and downloads a pack
	ExecuteUploadPack
	// AdvertiseReceivePack lists refs before a push
	AdvertiseReceivePack
	// ExecuteReceivePack uploads ref updates and a pack
	ExecuteReceivePack
)

// Service names as they appear in the Git media types
const (
	UploadPackService  = "upload-pack"
	ReceivePackService = "receive-pack"
)

// Route is the HTTP shape of an Action
type Route struct {
	Service string
	Path    string
	Method  string
}

// Route maps the action to its service, URL path suffix and HTTP method
func (a Action) Route() Route {
	switch a {
	case AdvertiseUploadPack:
		return Route{Service: UploadPackService, Path: "/info/refs?service=git-upload-pack", Method: http.MethodGet}
	case ExecuteUploadPack:
		return Route{Service: UploadPackService, Path: "/git-upload-pack", Method: http.MethodPost}
	case AdvertiseReceivePack:
		return Route{Service: ReceivePackService, Path: "/info/refs?service=git-receive-pack", Method: http.MethodGet}
	case ExecuteReceivePack:
		return Route{Service: ReceivePackService, Path: "/git-receive-pack", Method: http.MethodPost}
	}
	panic(fmt.Sprintf("transport: unknown action %d", int(a)))
}

func (a Action) String() string {
	switch a {
	case AdvertiseUploadPack:
		return "advertise-upload-pack"
	case ExecuteUploadPack:
		return "upload-pack"
	case AdvertiseReceivePack:
		return "advertise-receive-pack"
	case ExecuteReceivePack:
		return "receive-pack"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// requestType is the Content-Type of a POST body
func (r Route) requestType() string {
	return fmt.Sprintf("application/x-git-%s-request", r.Service)
}

// resultType is what a POST answers with, and what a client with a payload accepts
func (r Route) resultType() string {
	return fmt.Sprintf("application/x-git-%s-result", r.Service)
}

// responseType is the Content-Type the server must answer this route with
func (r Route) responseType() string {
	if r.Method == http.MethodGet {
		return fmt.Sprintf("application/x-git-%s-advertisement", r.Service)
	}
	return r.resultType()
}
