package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/vidyalaya/services/report"
)

func (cli *commandLine) importStudents(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening workbook")
	}
	defer f.Close()

	rows, err := report.ReadStudents(f)
	if err != nil {
		return err
	}
	res, err := cli.usrSvc.ImportStudents(context.Background(), rows, cli.validate)
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "%d student(s) created, %d row(s) rejected\n", len(res.Created), len(res.Errors))
	for _, e := range res.Errors {
		fmt.Fprintf(cli.out, "  row %d (%s): %s\n", e.Row, e.AdmissionID, e.Error)
	}
	return nil
}
