package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/gpurun/gpurun/internal/gpu"
)

// gpusCmd represents the gpus command
var gpusCmd = &cobra.Command{
	Use:   "gpus",
	Short: "List the GPUs detected on this host",
	Long:  `Detects GPUs via nvidia-smi. These are the ids accepted by run --gpus.`,
	RunE:  runGPUs,
}

func init() {
	rootCmd.AddCommand(gpusCmd)
}

func runGPUs(cmd *cobra.Command, args []string) error {
	devices, err := gpu.Detect()
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		type deviceJSON struct {
			Index int    `json:"index"`
			Name  string `json:"name"`
		}
		out := make([]deviceJSON, 0, len(devices))
		for _, d := range devices {
			out = append(out, deviceJSON{Index: d.Index, Name: d.Name})
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Name")
	for _, d := range devices {
		table.Append(fmt.Sprintf("%d", d.Index), d.Name)
	}
	table.Render()
	fmt.Printf("\nTotal GPUs: %d\n", len(devices))

	return nil
}
