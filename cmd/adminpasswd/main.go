// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Command adminpasswd prints the bcrypt hash of an admin password, or a new
// session secret with -secret.
//
//	go run ./cmd/adminpasswd
//	go run ./cmd/adminpasswd -secret
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"codeberg.org/dapp32/dapp32/core/audit"
	"codeberg.org/dapp32/dapp32/core/session"
)

const minPasswordLength = 8

var (
	errPasswordTooShort = fmt.Errorf("password must be at least %d characters", minPasswordLength)
	errPasswordMismatch = errors.New("passwords do not match")
)

func main() {
	audit.SetDefaultLogger()

	secret := flag.Bool("secret", false, "Print a new hex encoded session secret instead")
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	flag.Parse()

	if *secret {
		fmt.Println(session.NewSecretKeyHex())

		return
	}

	password, err := readPassword(os.Stdin, os.Stderr)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read password")
	}

	hash, err := hashPassword(password, *cost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	fmt.Println(hash)
}

// readPassword prompts twice on a terminal. Otherwise it reads one line.
func readPassword(in *os.File, prompt io.Writer) (string, error) {
	fd := int(in.Fd()) // #nosec G115 -- file descriptors fit in an int

	if !term.IsTerminal(fd) {
		return readLine(in)
	}

	_, _ = fmt.Fprint(prompt, "Enter password: ")

	first, err := term.ReadPassword(fd)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	_, _ = fmt.Fprint(prompt, "\nConfirm password: ")

	second, err := term.ReadPassword(fd)
	if err != nil {
		return "", fmt.Errorf("failed to read password confirmation: %w", err)
	}

	_, _ = fmt.Fprintln(prompt)

	if string(first) != string(second) {
		return "", errPasswordMismatch
	}

	return string(first), nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// hashPassword returns the bcrypt hash of password, as accepted by
// admin.passwordHash.
func hashPassword(password string, cost int) (string, error) {
	if len(password) < minPasswordLength {
		return "", errPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}

	return string(hash), nil
}
