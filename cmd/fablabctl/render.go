package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/fablab-print-api/internal/dto"
)

func renderReport(w io.Writer, report dto.AuditReport, format string) error {
	switch strings.ToLower(format) {
	case "", "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	case "yaml", "yml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(report); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func renderStaff(w io.Writer, members []dto.StaffResponse) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tACTIVE\tADDED")
	for _, member := range members {
		fmt.Fprintf(tw, "%s\t%t\t%s\n", member.Name, member.IsActive, member.AddedAt.Format("2006-01-02"))
	}
	return tw.Flush()
}
