package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/darasahq/darasa/core/student"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sqlx.DB
	stdSvc     *student.Service
	validate   *validator.Validate
	translator ut.Translator
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a database migration command (up, down, status, ...)")
	fmt.Println("  addstudent -id ID -roll ROLL -name NAME -class CLASS -section SECTION - register a student")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addStudentCmd := flag.NewFlagSet("addstudent", flag.ExitOnError)
	addStudentID := addStudentCmd.String("id", "", "The student's unique id. The password will be prompted next.")
	addStudentRoll := addStudentCmd.String("roll", "", "The student's roll number.")
	addStudentName := addStudentCmd.String("name", "", "The student's full name.")
	addStudentClass := addStudentCmd.String("class", "", "The student's class.")
	addStudentSection := addStudentCmd.String("section", "", "The student's section.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addstudent":
		if err := addStudentCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addStudentID == "" || *addStudentRoll == "" || *addStudentName == "" ||
			*addStudentClass == "" || *addStudentSection == "" {
			addStudentCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addStudentCmd.Usage()
			return errHelp
		}
		return cli.addStudent(student.NewStudent{
			ID:         *addStudentID,
			RollNumber: *addStudentRoll,
			Name:       *addStudentName,
			Class:      *addStudentClass,
			Section:    *addStudentSection,
			Password:   string(pwd),
		})
	default:
		cli.printUsage()
		return errHelp
	}
}
