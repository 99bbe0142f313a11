package wire_test

import (
	"errors"
	"io"
	"net"
	"testing"

	"github.com/ardanlabs/gossipchain/foundation/wire"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestLines(t *testing.T) {
	t.Log("Given the need to exchange newline delimited messages.")
	{
		client, server := net.Pipe()
		c := wire.New(client, 0)
		s := wire.New(server, 0)

		go func() {
			c.WriteLine("PEER miner1\n\n")
			c.WriteLine("GET_BLOCKS 0")
			c.Close()
		}()

		line, err := s.ReadLine()
		if err != nil || line != "PEER miner1" {
			t.Logf("\t%s\tgot: %q %v", failed, line, err)
			t.Fatalf("\t%s\tShould read the first line without the newline.", failed)
		}
		t.Logf("\t%s\tShould read the first line without the newline.", success)

		line, err = s.ReadLine()
		if err != nil || line != "GET_BLOCKS 0" {
			t.Logf("\t%s\tgot: %q %v", failed, line, err)
			t.Fatalf("\t%s\tShould read the second line.", failed)
		}
		t.Logf("\t%s\tShould read the second line.", success)

		if _, err := s.ReadLine(); !errors.Is(err, io.EOF) {
			t.Fatalf("\t%s\tShould see the end of the stream: %v", failed, err)
		}
		t.Logf("\t%s\tShould see the end of the stream.", success)
	}
}
