package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-perma/internal/bank"
	"github.com/mind-engage/mindengage-perma/internal/scoring"
)

var (
	scoreAnswers string
	scorePolicy  string
	scoreBank    string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score an answers JSON object and print the result",
	Long: `Reads {"P1": 4, "P2": "2", ...} from --answers (or stdin with "-")
and prints the scored result with its result code.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := scoreBank
		if path == "" {
			path = cfg.BankPath
		}
		b, err := bank.LoadOrDefault(path)
		if err != nil {
			return err
		}
		if scorePolicy == "" {
			scorePolicy = cfg.MissingPolicy
		}
		policy, err := scoring.ParsePolicy(scorePolicy)
		if err != nil {
			return err
		}
		answers, err := readAnswers(cmd.InOrStdin(), scoreAnswers)
		if err != nil {
			return err
		}
		res := scoring.Score(b, answers, policy)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			scoring.Result
			Code string `json:"code"`
		}{res, res.Code()})
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreAnswers, "answers", "-", "answers JSON file, - for stdin")
	scoreCmd.Flags().StringVar(&scorePolicy, "policy", "", "missing-data policy: zero|min|mid|skip")
	scoreCmd.Flags().StringVar(&scoreBank, "bank", "", "question bank file (default: BANK_PATH or embedded)")
}

func readAnswers(stdin io.Reader, path string) (map[string]any, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var answers map[string]any
	if err := json.NewDecoder(r).Decode(&answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return answers, nil
}
