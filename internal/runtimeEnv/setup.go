// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package runtimeEnv provides small process-bootstrap helpers: loading a
// .env file into the process environment and notifying systemd of
// readiness/status transitions.
package runtimeEnv

import (
	"os"
	"os/exec"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadEnv loads key=value pairs from file into the process environment.
// Keys already set in the environment are left untouched.
func LoadEnv(file string) error {
	vars, err := godotenv.Read(file)
	if err != nil {
		return err
	}

	for k, v := range vars {
		if _, exists := os.LookupEnv(k); !exists {
			if err := os.Setenv(k, v); err != nil {
				return err
			}
		}
	}

	return nil
}

// SystemdNotifiy informs systemd, if started via systemd, that the process
// is running or has reached a new status.
// https://www.freedesktop.org/software/systemd/man/sd_notify.html
func SystemdNotifiy(ready bool, status string) {
	if os.Getenv("NOTIFY_SOCKET") == "" {
		// Not started using systemd
		return
	}

	args := []string{"--pid=" + strconv.Itoa(os.Getpid())}
	if ready {
		args = append(args, "--ready")
	}

	if status != "" {
		args = append(args, "--status="+status)
	}

	cmd := exec.Command("systemd-notify", args...)
	cmd.Run() // errors ignored on purpose, there is not much to do anyways.
}
