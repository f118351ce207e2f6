package reader

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"syscall"
)

// Pipe implements CardReader on a named pipe, for bench testing without
// hardware. Each line written to the pipe is one presentation:
//
//	card <hex>    - present a card, e.g. "card 04A32F9C" or "card 04:A3:2F:9C"
//	glitch        - a card seen but its serial unreadable
//	# comment     - ignored
type Pipe struct {
	path   string
	events chan presentation
	cancel context.CancelFunc
	file   io.Closer
	done   chan struct{}
	slot
}

type presentation struct {
	id  []byte
	err error
}

// NewPipe creates the named pipe at path and starts listening on it.
func NewPipe(path string) (*Pipe, error) {
	if path == "" {
		path = "/tmp/cardrelay-cards"
	}

	os.Remove(path)
	if err := syscall.Mkfifo(path, 0666); err != nil {
		return nil, fmt.Errorf("%w: create named pipe %s: %v", ErrModuleAbsent, path, err)
	}

	// Read-write so the open never waits for a writer and the pipe
	// survives writers coming and going.
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("%w: open named pipe %s: %v", ErrModuleAbsent, path, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := newPipe(path, cancel)
	p.file = file
	go p.listen(ctx, file)
	return p, nil
}

func newPipe(path string, cancel context.CancelFunc) *Pipe {
	return &Pipe{
		path:   path,
		events: make(chan presentation, 16),
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// listen forwards presentations from r until r is closed or ctx is done.
func (p *Pipe) listen(ctx context.Context, r io.Reader) {
	defer close(p.done)
	log.Printf("Card pipe listening on %s", p.path)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		ev, ok, err := parsePipeLine(scanner.Text())
		if err != nil {
			log.Printf("Card pipe parse error: %v", err)
			continue
		}
		if !ok {
			continue
		}
		select {
		case p.events <- ev:
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		log.Printf("Card pipe read error: %v", err)
	}
}

// parsePipeLine parses one command line. ok is false for blank and comment lines.
func parsePipeLine(line string) (ev presentation, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return presentation{}, false, nil
	}

	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case "card", "tag", "rfid":
		if len(parts) < 2 {
			return presentation{}, false, fmt.Errorf("card requires an identifier")
		}
		digits := strings.ReplaceAll(parts[1], ":", "")
		id, err := hex.DecodeString(digits)
		if err != nil {
			return presentation{}, false, fmt.Errorf("invalid card identifier %q: %w", parts[1], err)
		}
		return presentation{id: id}, true, nil

	case "glitch":
		return presentation{err: fmt.Errorf("%w: simulated glitch", ErrTransientRead)}, true, nil

	default:
		return presentation{}, false, fmt.Errorf("unknown command: %s", parts[0])
	}
}

// HasNewCard implements CardReader.HasNewCard.
func (p *Pipe) HasNewCard() bool {
	select {
	case ev := <-p.events:
		p.set(ev.id, ev.err)
		return true
	default:
		return false
	}
}

// ReadSerial implements CardReader.ReadSerial.
func (p *Pipe) ReadSerial() ([]byte, error) {
	return p.take()
}

// HaltSession implements CardReader.HaltSession.
func (p *Pipe) HaltSession() {
	p.clear()
}

// Close stops listening and removes the pipe.
func (p *Pipe) Close() error {
	p.cancel()
	if p.file != nil {
		p.file.Close()
	}
	return os.Remove(p.path)
}
