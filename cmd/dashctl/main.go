package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reportkit/dashboard/internal/dashboard"
)

var serverURL string

func main() {
	root := &cobra.Command{
		Use:          "dashctl",
		Short:        "Client for the test case dashboard API",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "dashboard server base URL")

	root.AddCommand(newSaveCmd(), newGetCmd(), newListCmd(), newExportCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newSaveCmd() *cobra.Command {
	var (
		environment string
		site        string
		total       string
		passed      string
		failed      string
		skipped     string
		widgets     []string
		remarks     []string
	)

	cmd := &cobra.Command{
		Use:   "save <id>",
		Short: "Build a dashboard snapshot from flags and save it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Raw flag values go through the same coercion the dashboard
			// inputs use: anything the parser rejects becomes 0.
			ctrl := dashboard.NewController()
			if environment != "" {
				ctrl.SetConfig(dashboard.ConfigEnvironment, environment)
			}
			if site != "" {
				ctrl.SetConfig(dashboard.ConfigSite, site)
			}
			for field, raw := range map[dashboard.CountField]string{
				dashboard.FieldTotal:   total,
				dashboard.FieldPassed:  passed,
				dashboard.FieldFailed:  failed,
				dashboard.FieldSkipped: skipped,
			} {
				if cmd.Flags().Changed(string(field)) {
					ctrl.SetTestCase(field, raw)
				}
			}
			for _, spec := range widgets {
				name, field, raw, err := parseWidgetFlag(spec)
				if err != nil {
					return err
				}
				ctrl.SetWidgetField(name, field, raw)
			}
			for _, spec := range remarks {
				slot, text, err := parseRemarkFlag(spec)
				if err != nil {
					return err
				}
				ctrl.SetRemark(slot, text)
			}

			// Invariant violations warn but do not block the save attempt;
			// the server decides what it accepts.
			for _, msg := range ctrl.Errors() {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", msg)
			}

			body, err := json.Marshal(ctrl.State())
			if err != nil {
				return err
			}
			resp, err := http.Post(fmt.Sprintf("%s/api/dashboard/%s", serverURL, args[0]), "application/json", bytes.NewReader(body))
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			out, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("save failed: %s: %s", resp.Status, strings.TrimSpace(string(out)))
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(out)))
			return nil
		},
	}

	cmd.Flags().StringVar(&environment, "environment", "", "environment (PROD, UAT, DEV, Sandbox)")
	cmd.Flags().StringVar(&site, "site", "", "site (LON1A, LON1B, NOV1A, NOV1B, FRA1, JHB1A)")
	cmd.Flags().StringVar(&total, "total", "", "total test cases")
	cmd.Flags().StringVar(&passed, "passed", "", "passed test cases")
	cmd.Flags().StringVar(&failed, "failed", "", "failed test cases")
	cmd.Flags().StringVar(&skipped, "skipped", "", "skipped test cases")
	cmd.Flags().StringArrayVar(&widgets, "widget", nil, "widget count, e.g. telemetry.passed=12 (repeatable)")
	cmd.Flags().StringArrayVar(&remarks, "remark", nil, "remark, e.g. overall=looks good (repeatable)")
	return cmd
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch a dashboard snapshot as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return fetchJSON(cmd, fmt.Sprintf("%s/api/dashboard/%s", serverURL, args[0]))
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all stored dashboard snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return fetchJSON(cmd, serverURL+"/api/dashboards")
		},
	}
}

func newExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Download a PNG export of a dashboard snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Get(fmt.Sprintf("%s/api/dashboard/%s/export", serverURL, args[0]))
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("export failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
			}

			filename := out
			if filename == "" {
				filename = attachmentFilename(resp.Header.Get("Content-Disposition"))
			}
			if filename == "" {
				filename = fmt.Sprintf("test-case-dashboard-%s.png", args[0])
			}

			f, err := os.Create(filename)
			if err != nil {
				return err
			}
			defer f.Close()
			if _, err := io.Copy(f, resp.Body); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", filename)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "output file (defaults to the server-provided filename)")
	return cmd
}

func fetchJSON(cmd *cobra.Command, url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		pretty.Write(body)
	}
	fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
	return nil
}

func parseWidgetFlag(spec string) (dashboard.WidgetName, dashboard.CountField, string, error) {
	kv := strings.SplitN(spec, "=", 2)
	if len(kv) != 2 {
		return "", "", "", fmt.Errorf("bad widget flag %q, want name.field=value", spec)
	}
	path := strings.SplitN(kv[0], ".", 2)
	if len(path) != 2 {
		return "", "", "", fmt.Errorf("bad widget flag %q, want name.field=value", spec)
	}

	name := dashboard.WidgetName(path[0])
	switch name {
	case dashboard.WidgetTelemetry, dashboard.WidgetInbound, dashboard.WidgetOutbound:
	default:
		return "", "", "", fmt.Errorf("unknown widget %q", path[0])
	}

	field := dashboard.CountField(path[1])
	switch field {
	case dashboard.FieldTotal, dashboard.FieldPassed, dashboard.FieldFailed, dashboard.FieldSkipped:
	default:
		return "", "", "", fmt.Errorf("unknown widget field %q", path[1])
	}

	return name, field, kv[1], nil
}

func parseRemarkFlag(spec string) (dashboard.RemarkSlot, string, error) {
	kv := strings.SplitN(spec, "=", 2)
	if len(kv) != 2 {
		return "", "", fmt.Errorf("bad remark flag %q, want slot=text", spec)
	}

	slot := dashboard.RemarkSlot(kv[0])
	switch slot {
	case dashboard.RemarkOverall, dashboard.RemarkTelemetry, dashboard.RemarkInbound, dashboard.RemarkOutbound:
	default:
		return "", "", fmt.Errorf("unknown remark slot %q", kv[0])
	}

	return slot, kv[1], nil
}

func attachmentFilename(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}
