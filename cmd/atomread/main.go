// Command atomread reads an OData ATOM or AtomPub payload and prints it
// as YAML.
//
// Usage:
//
//	atomread [flags] [file]
//
// The payload is read from file, or from standard input when file is
// absent or "-". The payload kind is detected from the content type
// and the payload's root element unless -kind is given.
//
// Flags:
//
//	-content-type string   Content type of the payload (default: application/atom+xml)
//	-config string         YAML session configuration file
//	-metadata string       CSDL metadata document used to validate the payload
//	-kind string           Payload kind to read (e.g. entry, feed, property)
//	-request               Read the payload as a request payload
//	-detect                Print the detected payload kinds and exit
//
// Exit code is 0 if the payload was read, 1 if reading failed and 2 on
// usage errors.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/andaru/atompub/atom"
	"github.com/andaru/atompub/message"
	"github.com/andaru/atompub/session"
	"github.com/golang/glog"
	"gopkg.in/yaml.v3"
)

type detection struct {
	Kind     atom.PayloadKind `yaml:"kind"`
	TypeName string           `yaml:"type-name,omitempty"`
	Error    string           `yaml:"error,omitempty"`
}

func main() {
	var (
		contentType, configPath, metadata, kind string
		request, detectOnly                     bool
	)
	flag.StringVar(&contentType, "content-type", "application/atom+xml", "Content type of the payload")
	flag.StringVar(&configPath, "config", "", "YAML session configuration file")
	flag.StringVar(&metadata, "metadata", "", "CSDL metadata document used to validate the payload")
	flag.StringVar(&kind, "kind", "", "Payload kind to read (default: detect)")
	flag.BoolVar(&request, "request", false, "Read the payload as a request payload")
	flag.BoolVar(&detectOnly, "detect", false, "Print the detected payload kinds and exit")
	flag.Parse()
	defer glog.Flush()

	var config session.Config
	if configPath != "" {
		var err error
		if config, err = session.LoadConfigFile(configPath); err != nil {
			exit(2, "error: %v", err)
		}
	}
	if metadata != "" {
		config.Metadata = metadata
	}
	if kind != "" {
		if err := config.Kind.UnmarshalText([]byte(kind)); err != nil {
			exit(2, "error: %v", err)
		}
	}
	config.Request = config.Request || request

	in, err := input(flag.Arg(0))
	if err != nil {
		exit(2, "error: %v", err)
	}
	s := session.New(message.New(contentType, in), config)

	if detectOnly {
		s.Detect()
		var out []detection
		for _, d := range s.State.Candidates {
			dd := detection{Kind: d.Kind, TypeName: d.TypeName}
			if d.Err != nil {
				dd.Error = d.Err.Error()
			}
			out = append(out, dd)
		}
		s.Close()
		if err := write(os.Stdout, out); err != nil {
			exit(1, "error: %v", err)
		}
		return
	}

	status := 0
	s.Run(session.Handlers{
		Payload: func(_ *session.Session, p *session.Payload) {
			if err := write(os.Stdout, p); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				status = 1
			}
		},
		Error: func(s *session.Session) {
			for _, err := range s.Errors() {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
			status = 1
		},
	})
	if status != 0 {
		glog.Flush()
		os.Exit(status)
	}
}

func input(path string) (io.Reader, error) {
	if path == "" || path == "-" {
		return os.Stdin, nil
	}
	return os.Open(path)
}

// write renders v as a YAML document to w
func write(w io.Writer, v interface{}) error {
	n, err := render(reflect.ValueOf(v))
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(n); err != nil {
		return err
	}
	return enc.Close()
}

func exit(code int, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	glog.Flush()
	os.Exit(code)
}
