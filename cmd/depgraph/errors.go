package main

import "github.com/pkg/errors"

var errArgs = errors.New("wrong number of arguments")
