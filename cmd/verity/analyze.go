package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spacesedan/verity/internal/bias"
	"github.com/urfave/cli/v2"
)

var (
	analyzeCmd = &cli.Command{
		Name:      "analyze",
		Usage:     "Print the bias assessment for a headline",
		ArgsUsage: "<headline...>",
		Action:    cmdAnalyze,
		Flags: []cli.Flag{
			formatFlag,
		},
	}

	wordCmd = &cli.Command{
		Name:      "word",
		Usage:     "Print the emotional category of a word",
		ArgsUsage: "<word>",
		Action:    cmdWord,
	}
)

func cmdAnalyze(c *cli.Context) error {
	headline := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if headline == "" {
		return errors.New("headline is required")
	}

	return encode(c.App.Writer, c.String(formatFlag.Name), bias.AnalyzeHeadline(headline))
}

func cmdWord(c *cli.Context) error {
	word := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if word == "" {
		return errors.New("word is required")
	}

	_, err := fmt.Fprintln(c.App.Writer, bias.GetWordContribution(word))
	return err
}
