package cmd

import (
	"github.com/masmgr/git-contains/internal/output"
)

func writeReport(report *output.ContainsReport, opts output.OutputOptions) error {
	writer := output.NewReportWriter(opts.Format)
	return writer.Write(report, opts)
}
