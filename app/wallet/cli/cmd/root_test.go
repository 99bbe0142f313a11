package cmd

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestWithMiner(t *testing.T) {
	retryDelay = 0

	tt := []struct {
		name  string
		addrs []string
		down  map[string]bool
		exp   []string
		fails bool
	}{
		{name: "first", addrs: []string{"a", "b"}, down: map[string]bool{}, exp: []string{"a"}},
		{name: "failover", addrs: []string{"a", "b"}, down: map[string]bool{"a": true}, exp: []string{"a", "b"}},
		{name: "single", addrs: []string{"a"}, down: map[string]bool{"a": true}, exp: []string{"a", "a", "a"}, fails: true},
		{name: "alldown", addrs: []string{"a", "b"}, down: map[string]bool{"a": true, "b": true}, exp: []string{"a", "b", "a"}, fails: true},
	}

	t.Log("Given the need to retry a miner call and fail over to other miners.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				var tried []string
				call := func(ctx context.Context, addr string) error {
					tried = append(tried, addr)
					if tst.down[addr] {
						return errors.New("connection refused")
					}
					return nil
				}

				err := withMiner(tst.addrs, call)
				if (err != nil) != tst.fails {
					t.Fatalf("\t%s\tTest %d:\tShould fail only when every attempt fails : %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould fail only when every attempt fails.", success, testID)

				if fmt.Sprint(tried) != fmt.Sprint(tst.exp) {
					t.Fatalf("\t%s\tTest %d:\tShould try miners %v : %v", failed, testID, tst.exp, tried)
				}
				t.Logf("\t%s\tTest %d:\tShould try miners %v.", success, testID, tst.exp)
			}

			t.Run(tst.name, f)
		}
	}
}
