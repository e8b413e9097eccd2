// Package printer renders a decoded stream as one console line per record.
package printer

import (
	"errors"
	"fmt"
	"io"

	"github.com/ssargent/wpilogviewer/pkg/codec"
	"github.com/ssargent/wpilogviewer/pkg/logging"
	"github.com/ssargent/wpilogviewer/pkg/value"
	"github.com/ssargent/wpilogviewer/pkg/wpilog"
)

// Options controls what the printer writes.
type Options struct {
	Topic      string // Only print values of channels with exactly this name; empty prints all
	Control    bool   // Print start, finish and set-metadata records
	Values     bool   // Print value records
	UTF8Policy codec.UTF8Policy
	Logger     logging.Logger // Receives anomalies such as records for unknown channels
}

type channel struct {
	name     string
	typ      string
	metadata string
}

// Printer is a wpilog.Sink that writes every record it receives to out.
// Unlike the index it only tracks the currently open channels.
type Printer struct {
	out      io.Writer
	opts     Options
	decoder  *value.Decoder
	logger   logging.Logger
	channels map[uint32]*channel
}

var (
	_ wpilog.Sink       = (*Printer)(nil)
	_ wpilog.HeaderSink = (*Printer)(nil)
)

// New creates a printer writing to out.
func New(out io.Writer, opts Options) *Printer {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Printer{
		out:      out,
		opts:     opts,
		decoder:  value.NewDecoder(opts.UTF8Policy),
		logger:   logger,
		channels: make(map[uint32]*channel),
	}
}

func (p *Printer) printf(format string, args ...any) error {
	_, err := fmt.Fprintf(p.out, format+"\n", args...)
	return err
}

// OnHeader prints the format version and the extra header.
func (p *Printer) OnHeader(h codec.Header) error {
	if err := p.printf("Version number %s", h.Version()); err != nil {
		return err
	}
	return p.printf("Extra header: %q", string(h.Extra))
}

func (p *Printer) OnStart(id uint32, name, typ, metadata string, ts uint64) error {
	if old, ok := p.channels[id]; ok {
		p.logger.Warn("overriding existing entry", "id", id, "name", old.name)
	}
	p.channels[id] = &channel{name: name, typ: typ, metadata: metadata}
	if !p.opts.Control {
		return nil
	}
	return p.printf("Got Start record at %d for entry ID %d, name %q, type %q, and metadata %q",
		ts, id, name, typ, metadata)
}

func (p *Printer) OnFinish(id uint32, ts uint64) error {
	ch, ok := p.channels[id]
	if !ok {
		p.logger.Error("could not end non-existent entry", "id", id, "timestamp", ts)
		return nil
	}
	delete(p.channels, id)
	if !p.opts.Control {
		return nil
	}
	return p.printf("Got Finish record at %d for entry ID %d (name %q)", ts, id, ch.name)
}

func (p *Printer) OnSetMetadata(id uint32, ts uint64, metadata string) error {
	ch, ok := p.channels[id]
	if !ok {
		p.logger.Error("could not set metadata of non-existent entry", "id", id, "timestamp", ts)
		return nil
	}
	ch.metadata = metadata
	if !p.opts.Control {
		return nil
	}
	return p.printf("Got Set Metadata record at %d for entry ID %d (name %q) to %q", ts, id, ch.name, metadata)
}

// OnValue prints a value record. Filtered values are never read from the stream.
func (p *Printer) OnValue(id uint32, ts uint64, payload *wpilog.Payload) error {
	if !p.opts.Values {
		return nil
	}
	ch, ok := p.channels[id]
	if !ok {
		p.logger.Error("cannot log to non-existent entry", "id", id, "timestamp", ts)
		return nil
	}
	if p.opts.Topic != "" && ch.name != p.opts.Topic {
		return nil
	}

	data, err := payload.Bytes()
	if err != nil {
		return err
	}

	v, err := p.decoder.Decode(ch.typ, data)
	var trailing *value.TrailingBytesError
	switch {
	case errors.As(err, &trailing):
		if err := p.printf("Warning: %s", trailing.Error()); err != nil {
			return err
		}
	case err != nil:
		return p.printf("Got %s for entry %d", err, id)
	}

	if !value.Known(ch.typ) {
		return p.printf("entry %d (unknown type %s) at %d got value %s", id, ch.typ, ts, value.Format(v))
	}
	return p.printf("entry %d (type %s) at %d got value %s", id, ch.typ, ts, value.Format(v))
}

// Done marks the end of the stream.
func (p *Printer) Done() error {
	return p.printf("<DONE>")
}
