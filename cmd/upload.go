package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/analysis-dashboard/internal/adapters/client"
	"github.com/spf13/cobra"
)

var (
	uploadURL       string
	uploadTool      string
	uploadReference string
	uploadTimeout   time.Duration
)

var uploadCmd = &cobra.Command{
	Use:   "upload <report.xml>",
	Short: "Upload a Checkstyle or PMD report to a running dashboard",
	Long: `Upload posts a report file to the dashboard's /issues endpoint.

The reference defaults to the file name. Uploading the same tool and
reference again replaces the stored report.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadURL, "url", "http://localhost:9080/", "Dashboard base URL")
	uploadCmd.Flags().StringVar(&uploadTool, "tool", "", "Analysis tool id (checkstyle, pmd)")
	uploadCmd.Flags().StringVar(&uploadReference, "reference", "", "Report reference (defaults to the file name)")
	uploadCmd.Flags().DurationVar(&uploadTimeout, "timeout", 30*time.Second, "Request timeout")
	_ = uploadCmd.MarkFlagRequired("tool")
}

func runUpload(cmd *cobra.Command, args []string) error {
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	uploader, err := client.NewUploader(uploadURL, uploadTimeout)
	if err != nil {
		return err
	}
	res, err := uploader.Upload(cmd.Context(), uploadTool, uploadReference, filepath.Base(path), f)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "stored %s/%s: %d issues\n", res.Tool, res.Reference, res.Issues)
	fmt.Fprintf(cmd.OutOrStdout(), "details: %s/%s\n", strings.TrimSuffix(uploadURL, "/"), res.Details)
	return nil
}
