// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// tncontract contracts the tensor network stored in a safetensors file.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/maruel/tensornet"
	"github.com/maruel/tensornet/netfile"
)

// labelList is a flag.Value holding a comma separated list of labels.
type labelList struct {
	set    bool
	labels []int
}

func (l *labelList) String() string {
	s := make([]string, len(l.labels))
	for i, v := range l.labels {
		s[i] = strconv.Itoa(v)
	}
	return strings.Join(s, ",")
}

func (l *labelList) Set(v string) error {
	l.set = true
	l.labels = []int{}
	if v == "" {
		return nil
	}
	for _, f := range strings.Split(v, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return fmt.Errorf("invalid label %q", f)
		}
		l.labels = append(l.labels, n)
	}
	return nil
}

func mainImpl(fs *flag.FlagSet, args []string, stdout, stderr io.Writer) error {
	var order, forder labelList
	fs.Var(&order, "order", "Comma separated contraction order, overrides the file's")
	fs.Var(&forder, "forder", "Comma separated result axis order, overrides the file's")
	check := fs.Bool("check", tensornet.DefaultCheckIndices, "Validate the network before contracting")
	out := fs.String("o", "", "Write the result to this safetensors file")
	name := fs.String("name", "result", "Tensor name in the output file")
	verbose := fs.Bool("v", false, "Log every contraction step")
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [options] <network.safetensors>\n", fs.Name())
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("expected exactly one network file")
	}
	net, err := netfile.Load(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", fs.Arg(0), err)
	}
	logger.Debug("loaded", "path", fs.Arg(0), "tensors", len(net.Tensors))

	if order.set {
		net.Order = order.labels
	}
	if forder.set {
		net.ForOrder = forder.labels
	}
	if net.ForOrder == nil {
		net.ForOrder = tensornet.DefaultForOrder(net.Labels)
	}
	opts := append(net.Options(), tensornet.WithCheckIndices(*check), tensornet.WithLogger(logger))
	res, err := tensornet.Contract(net.Tensors, net.Labels, opts...)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s %v\n", res.DType(), res.Shape())

	if *out == "" {
		return nil
	}
	d, ok := res.(*tensornet.Dense)
	if !ok {
		return fmt.Errorf("unexpected result type %T", res)
	}
	f, err := netfile.NewFile([]string{*name}, []*tensornet.Dense{d}, [][]int{net.ForOrder}, nil, nil)
	if err != nil {
		return err
	}
	if err := netfile.Save(*out, f); err != nil {
		return fmt.Errorf("failed to write %s: %w", *out, err)
	}
	logger.Info("wrote", "path", *out)
	return nil
}

func main() {
	if err := mainImpl(flag.CommandLine, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "tncontract: %s\n", err)
		os.Exit(1)
	}
}
