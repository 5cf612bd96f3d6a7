package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) refreshPercentages() error {
	n, err := cli.marksSvc.RefreshPercentages(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "percentages of %d student(s) refreshed\n", n)
	return nil
}
