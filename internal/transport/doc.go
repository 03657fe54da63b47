// Package transport implements the client side of Git's smart HTTP protocol
// as a set of single-shot byte streams.
//
// A Session represents one logical connection to a remote repository. Each
// transport action (ref advertisement or pack exchange, for upload-pack and
// receive-pack) is served by its own Stream:
//
//   - Write buffers the request payload (pkt-line framed, built by the caller)
//   - the first Read sends exactly one HTTP request and validates the status
//     and Content-Type of the response
//   - subsequent Reads stream the response body
//
// The first action of a Session fixes the remote base URL; every later
// action in the same Session is sent to it, whatever URL it is given.
//
// Example usage:
//
//	session := transport.NewSession()
//	stream := session.Perform(ctx, "https://example.test/repo.git", transport.AdvertiseUploadPack)
//	defer stream.Close()
//
//	advertisement, err := io.ReadAll(stream)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Failures are reported as *Error values whose Kind can be tested with
// errors.Is against the Err* sentinels. Errors from the HTTP client itself
// are returned as they are.
package transport
