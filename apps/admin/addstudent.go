package main

import (
	"context"

	"github.com/darasahq/darasa/core/student"
)

// addStudent registers a student profile with its login credential.
func (cli *commandLine) addStudent(ns student.NewStudent) error {
	if err := ns.Validate(cli.validate, cli.translator, cli.stdSvc); err != nil {
		return err
	}
	_, err := cli.stdSvc.Create(context.Background(), ns)
	return err
}
