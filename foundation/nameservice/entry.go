// Package nameservice implements the directory miners register with so they
// can find each other, along with the client used to talk to it.
package nameservice

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/ardanlabs/gossipchain/foundation/validate"
)

// Set of commands understood by the directory.
const (
	CmdRegister = "REGISTER"
	CmdList     = "LIST"
	RespOK      = "OK"
	RespEnd     = "END"
	RespErr     = "ERR"
)

// ErrInvalidPort is returned when a registration carries a port that is
// not a number.
var ErrInvalidPort = errors.New("invalid port")

// Entry represents a miner that can be reached on the network.
type Entry struct {
	Name string `json:"name" validate:"required,excludesall= \t"`
	Host string `json:"host" validate:"required,excludesall= \t"`
	Port int    `json:"port" validate:"min=1,max=65535"`
}

// Validate checks the entry fields.
func (e Entry) Validate() error {
	return validate.Check(e)
}

// Addr returns the host:port form of the entry.
func (e Entry) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// String returns the "name host port" line form of the entry.
func (e Entry) String() string {
	return fmt.Sprintf("%s %s %d", e.Name, e.Host, e.Port)
}

// ParseEntry parses the "name host port" line form of an entry.
func ParseEntry(line string) (Entry, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return Entry{}, fmt.Errorf("entry %q: got %d fields, exp 3", line, len(fields))
	}

	port, err := strconv.Atoi(fields[2])
	if err != nil {
		return Entry{}, ErrInvalidPort
	}

	e := Entry{
		Name: fields[0],
		Host: fields[1],
		Port: port,
	}

	if err := e.Validate(); err != nil {
		return Entry{}, err
	}

	return e, nil
}
