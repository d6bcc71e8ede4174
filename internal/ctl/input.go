package ctl

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var errPasswordMismatch = errors.New("passwords do not match")

// GetPassword prints prompt to w and reads a password from the terminal
// without echo. A newline is printed after the read to keep the UI tidy.
func GetPassword(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// GetNewPassword asks for a password twice and returns it when both
// entries match.
func GetNewPassword(w io.Writer) (string, error) {
	first, err := GetPassword(w, "Enter password: ")
	if err != nil {
		return "", err
	}
	second, err := GetPassword(w, "Repeat password: ")
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errPasswordMismatch
	}
	return string(first), nil
}
