package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/ilkit/ilexpr/metadata"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

var (
	red   = color.New(color.FgRed).SprintFunc()
	green = color.New(color.FgGreen).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
)

func newLogger(w io.Writer) zerolog.Logger {
	level := zerolog.WarnLevel
	switch {
	case viper.GetBool("trace"):
		level = zerolog.TraceLevel
	case viper.GetBool("verbose"):
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: color.NoColor}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// bodies returns the named method bodies, or every body when names is empty.
func (a *app) bodies(names []string) ([]*metadata.MethodBody, error) {
	if len(names) == 0 {
		names = a.table.BodyNames()
	}
	bodies := make([]*metadata.MethodBody, 0, len(names))
	for _, name := range names {
		body, ok := a.table.Body(name)
		if !ok {
			return nil, fmt.Errorf("no method body named %q", name)
		}
		bodies = append(bodies, body)
	}
	return bodies, nil
}

func bodyName(body *metadata.MethodBody) string {
	return body.Method.DeclaringType.FullName() + "::" + body.Method.Name
}
