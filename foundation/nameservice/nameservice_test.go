package nameservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/ardanlabs/gossipchain/foundation/nameservice"
	"github.com/ardanlabs/gossipchain/foundation/wire"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func startServer(t *testing.T) (*nameservice.Server, string) {
	t.Helper()

	srv := nameservice.NewServer(nameservice.NewRegistry(), time.Second, func(v string, args ...any) {
		t.Logf(v, args...)
	})

	if err := srv.Start("127.0.0.1:0"); err != nil {
		t.Fatalf("\t%s\tShould be able to start the directory: %v", failed, err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})

	return srv, srv.Addr().String()
}

func waitFor(t *testing.T, fn func() bool) bool {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if fn() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestParseEntry(t *testing.T) {
	type table struct {
		name string
		line string
		ok   bool
	}

	tt := []table{
		{name: "valid", line: "miner1 127.0.0.1 9000", ok: true},
		{name: "spaces", line: "  miner1   localhost  9000 ", ok: true},
		{name: "fields", line: "miner1 127.0.0.1"},
		{name: "port", line: "miner1 127.0.0.1 abc"},
		{name: "range", line: "miner1 127.0.0.1 70000"},
		{name: "zero", line: "miner1 127.0.0.1 0"},
	}

	t.Log("Given the need to parse directory entries.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				e, err := nameservice.ParseEntry(tst.line)
				if tst.ok != (err == nil) {
					t.Fatalf("\t%s\tTest %d:\tShould get ok=%t for %q: %v", failed, testID, tst.ok, tst.line, err)
				}
				t.Logf("\t%s\tTest %d:\tShould get ok=%t for %q.", success, testID, tst.ok, tst.line)

				if tst.ok && e.Name != "miner1" {
					t.Fatalf("\t%s\tTest %d:\tShould get back the name, got %q.", failed, testID, e.Name)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func TestRegisterList(t *testing.T) {
	t.Log("Given the need to register miners with the directory.")
	{
		_, addr := startServer(t)
		client := nameservice.NewClient(addr, time.Second)
		ctx := context.Background()

		m1 := nameservice.Entry{Name: "miner1", Host: "127.0.0.1", Port: 9001}
		m2 := nameservice.Entry{Name: "miner2", Host: "127.0.0.1", Port: 9002}

		r1, err := client.Register(ctx, m1)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to register miner1: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to register miner1.", success)

		r2, err := client.Register(ctx, m2)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to register miner2: %v", failed, err)
		}
		defer r2.Close()
		t.Logf("\t%s\tShould be able to register miner2.", success)

		entries, err := client.List(ctx)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to list entries: %v", failed, err)
		}
		if len(entries) != 2 || entries[0] != m1 || entries[1] != m2 {
			t.Fatalf("\t%s\tShould list both miners in order, got %v.", failed, entries)
		}
		t.Logf("\t%s\tShould list both miners in order.", success)

		r1.Close()

		removed := waitFor(t, func() bool {
			entries, err := client.List(ctx)
			return err == nil && len(entries) == 1 && entries[0] == m2
		})
		if !removed {
			t.Fatalf("\t%s\tShould remove miner1 once its connection closes.", failed)
		}
		t.Logf("\t%s\tShould remove miner1 once its connection closes.", success)
	}
}

func TestProtocolErrors(t *testing.T) {
	type table struct {
		name string
		send string
		exp  string
	}

	tt := []table{
		{name: "port", send: "REGISTER miner1 127.0.0.1 abc", exp: "ERR invalid port"},
		{name: "unknown", send: "HELLO", exp: "ERR unknown command"},
		{name: "empty-list", send: "LIST", exp: "END"},
	}

	t.Log("Given the need to answer bad directory requests.")
	{
		_, addr := startServer(t)

		for testID, tst := range tt {
			f := func(t *testing.T) {
				conn, err := wire.Dial(context.Background(), addr, time.Second)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to connect: %v", failed, testID, err)
				}
				defer conn.Close()

				if err := conn.WriteLine(tst.send); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to send: %v", failed, testID, err)
				}

				resp, err := conn.ReadLine()
				if err != nil || resp != tst.exp {
					t.Logf("\t%s\tTest %d:\tgot: %q %v", failed, testID, resp, err)
					t.Fatalf("\t%s\tTest %d:\tShould get back %q.", failed, testID, tst.exp)
				}
				t.Logf("\t%s\tTest %d:\tShould get back %q.", success, testID, tst.exp)
			}

			t.Run(tst.name, f)
		}
	}
}
