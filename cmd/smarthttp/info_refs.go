package main

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/pktline"
	"github.com/spf13/cobra"

	"github.com/fenilsonani/smarthttp/internal/transport"
)

func newInfoRefsCommand(a *app) *cobra.Command {
	var service string

	cmd := &cobra.Command{
		Use:   "info-refs [flags] <repository>",
		Short: "Dump the raw ref advertisement of a remote",
		Long: `Fetch /info/refs for the given service and print each pkt-line payload
on its own line. Flush packets are printed as 0000 and the NUL that
separates the first ref from its capabilities as a space.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var action transport.Action
			switch service {
			case transport.UploadPackService:
				action = transport.AdvertiseUploadPack
			case transport.ReceivePackService:
				action = transport.AdvertiseReceivePack
			default:
				return fmt.Errorf("unknown service %q: want %s or %s", service, transport.UploadPackService, transport.ReceivePackService)
			}

			url, err := normalizeURL(args[0])
			if err != nil {
				return err
			}

			session := a.session()
			defer session.Close()

			stream := session.Perform(cmd.Context(), url, action)
			defer stream.Close()

			out := cmd.OutOrStdout()
			scanner := pktline.NewScanner(stream)
			for scanner.Scan() {
				payload := scanner.Bytes()
				if len(payload) == 0 {
					fmt.Fprintln(out, "0000")
					continue
				}
				line := strings.TrimSuffix(string(payload), "\n")
				fmt.Fprintln(out, strings.ReplaceAll(line, "\x00", " "))
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read advertisement from %s: %w", url, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&service, "service", transport.UploadPackService, "Service to advertise (upload-pack or receive-pack)")

	return cmd
}
