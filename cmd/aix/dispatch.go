package main

import (
	"fmt"
	"strings"

	"github.com/casualjim/aix/dispatch"
	"github.com/casualjim/aix/pkg/jsonx"
	"github.com/casualjim/aix/pkg/messages"
	json "github.com/goccy/go-json"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
)

type dispatchOptions struct {
	req  requestFlags
	dump bool
}

func newDispatchCmd(ro *rootOptions) *cobra.Command {
	do := &dispatchOptions{}
	cmd := &cobra.Command{
		Use:   "dispatch [prompt]",
		Short: "Show the HTTP request a prompt would produce, without sending it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := resolve(cmd, ro, &do.req)
			if err != nil {
				return err
			}
			req := t.request()
			req.Turns = []messages.Turn{messages.User(messages.Text(strings.Join(args, " ")))}

			call, err := dispatch.Dispatch(t.access, t.model, &req, t.streaming)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if do.dump {
				printer := pp.New()
				printer.SetOutput(out)
				printer.SetColoringEnabled(false)
				_, err = printer.Println(call.Request)
				return err
			}

			body, err := call.Request.EncodeBody()
			if err != nil {
				return err
			}
			doc := struct {
				Dialect string            `json:"dialect"`
				Method  string            `json:"method"`
				URL     string            `json:"url"`
				Headers map[string]string `json:"headers"`
				Format  string            `json:"format"`
				Body    json.RawMessage   `json:"body"`
			}{
				Dialect: string(call.Dialect),
				Method:  call.Request.Method,
				URL:     call.Request.URL,
				Headers: redact(call.Request.Headers),
				Format:  call.DemuxerFormat.String(),
				Body:    body,
			}
			b, err := jsonx.Indent(doc)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, string(b))
			return err
		},
	}
	do.req.register(cmd)
	cmd.Flags().BoolVar(&do.dump, "dump", false, "pretty-print the Go value of the request instead of JSON")
	return cmd
}

var secretHeaders = []string{"authorization", "x-api-key", "api-key", "x-goog-api-key"}

// redact masks credentials so the output can be shared.
func redact(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		for _, s := range secretHeaders {
			if strings.EqualFold(k, s) && v != "" {
				v = "***"
				break
			}
		}
		out[k] = v
	}
	return out
}
