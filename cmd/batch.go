package main

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/digital-duende/leadfinder/internal/discovery"
)

var (
	batchOwner string
	batchFile  string
)

var batchCmd = &cobra.Command{
	Use:   "batch [url...]",
	Short: "Scan multiple URLs, keeping only high-value leads",
	Long:  "Runs the pipeline over each URL with bounded parallelism. URLs come from arguments or --file (one per line, # comments allowed).",
	RunE: func(cmd *cobra.Command, args []string) error {
		urls := args
		if batchFile != "" {
			fromFile, err := readURLFile(batchFile)
			if err != nil {
				return err
			}
			urls = append(urls, fromFile...)
		}
		if len(urls) == 0 {
			return eris.New("no URLs given: pass arguments or --file")
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		inputs := make([]discovery.BatchInput, 0, len(urls))
		for _, u := range urls {
			inputs = append(inputs, discovery.BatchInput{URL: u})
		}

		res, err := env.Discovery.BatchScan(cmd.Context(), batchOwner, inputs)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open url file %s", path)
	}
	defer f.Close() //nolint:errcheck

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, eris.Wrap(sc.Err(), "read url file")
}

func init() {
	batchCmd.Flags().StringVar(&batchOwner, "owner", "local", "owner id the leads belong to")
	batchCmd.Flags().StringVar(&batchFile, "file", "", "file with URLs, one per line")
	rootCmd.AddCommand(batchCmd)
}
