package main

import "testing"

func TestParseRedisOptions(t *testing.T) {
	opts := parseRedisOptions("redis://:secret@localhost:6380/2")
	if opts.Addr != "localhost:6380" || opts.Password != "secret" || opts.DB != 2 {
		t.Fatalf("unexpected url options: %+v", opts)
	}

	opts = parseRedisOptions("cache.example.net:6380,password=abc=,ssl=True,abortConnect=False")
	if opts.Addr != "cache.example.net:6380" {
		t.Fatalf("unexpected addr: %s", opts.Addr)
	}
	if opts.Password != "abc=" {
		t.Fatalf("unexpected password: %q", opts.Password)
	}
	if opts.TLSConfig == nil {
		t.Fatal("expected tls config when ssl=True")
	}

	opts = parseRedisOptions("localhost:6379")
	if opts.Addr != "localhost:6379" || opts.TLSConfig != nil {
		t.Fatalf("unexpected plain options: %+v", opts)
	}
}

func TestEnvOr(t *testing.T) {
	t.Setenv("PRISM_TEST_VALUE", "")
	if got := envOr("PRISM_TEST_VALUE", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("PRISM_TEST_VALUE", "set")
	if got := envOr("PRISM_TEST_VALUE", "fallback"); got != "set" {
		t.Fatalf("expected set, got %q", got)
	}
}
