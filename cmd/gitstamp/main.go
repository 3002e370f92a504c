// Copyright © 2019 One Concern

package main

import (
	"github.com/oneconcern/gitstamp/cmd/gitstamp/cmd"
)

func main() {
	cmd.Execute()
}
