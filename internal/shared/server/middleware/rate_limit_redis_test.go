package middleware

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeRedis speaks enough RESP for INCR, EXPIRE and MULTI/EXEC.
type fakeRedis struct {
	ln net.Listener

	mu      sync.Mutex
	counts  map[string]int64
	expires map[string]int64
}

func newFakeRedis(t *testing.T) *fakeRedis {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	f := &fakeRedis{ln: ln, counts: map[string]int64{}, expires: map[string]int64{}}
	go f.serve()
	t.Cleanup(func() { _ = ln.Close() })
	return f
}

func (f *fakeRedis) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		go f.handle(conn)
	}
}

func (f *fakeRedis) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	var queued [][]string
	inMulti := false
	for {
		args, err := readCommand(r)
		if err != nil {
			return
		}
		name := strings.ToUpper(args[0])
		var reply string
		switch {
		case name == "MULTI":
			inMulti = true
			queued = nil
			reply = "+OK\r\n"
		case name == "EXEC":
			inMulti = false
			reply = fmt.Sprintf("*%d\r\n", len(queued))
			for _, cmd := range queued {
				reply += f.exec(cmd)
			}
		case inMulti:
			queued = append(queued, args)
			reply = "+QUEUED\r\n"
		default:
			reply = f.exec(args)
		}
		if _, err := io.WriteString(conn, reply); err != nil {
			return
		}
	}
}

func (f *fakeRedis) exec(args []string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch strings.ToUpper(args[0]) {
	case "INCR":
		f.counts[args[1]]++
		return fmt.Sprintf(":%d\r\n", f.counts[args[1]])
	case "EXPIRE":
		secs, _ := strconv.ParseInt(args[2], 10, 64)
		f.expires[args[1]] = secs
		return ":1\r\n"
	case "PING":
		return "+PONG\r\n"
	default:
		return "-ERR unknown command '" + args[0] + "'\r\n"
	}
}

func (f *fakeRedis) expiry(key string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.expires[key]
}

func readCommand(r *bufio.Reader) ([]string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, "*") {
		return nil, fmt.Errorf("unexpected line %q", line)
	}
	n, err := strconv.Atoi(line[1:])
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("bad array header %q", line)
	}
	args := make([]string, 0, n)
	for i := 0; i < n; i++ {
		header, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		size, err := strconv.Atoi(strings.TrimRight(header, "\r\n")[1:])
		if err != nil {
			return nil, err
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		args = append(args, string(buf[:size]))
	}
	return args, nil
}

func newTestRedisClient(t *testing.T, addr string) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:            addr,
		Protocol:        2,
		DisableIdentity: true,
		DialTimeout:     time.Second,
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisLimiterAllow(t *testing.T) {
	srv := newFakeRedis(t)
	now := time.Date(2026, 3, 2, 12, 0, 45, 0, time.UTC)
	limiter := NewRedisLimiter(newTestRedisClient(t, srv.ln.Addr().String()), func() time.Time { return now })
	rule := RateLimitRule{Rate: 0.01, Burst: 2}
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		ok, retry, err := limiter.Allow(ctx, "user-1", rule)
		if err != nil {
			t.Fatalf("Allow #%d: %v", i, err)
		}
		if !ok || retry != 0 {
			t.Fatalf("request %d should pass, got ok=%v retry=%v", i, ok, retry)
		}
	}

	ok, retry, err := limiter.Allow(ctx, "user-1", rule)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Fatalf("third request in the window should be limited")
	}
	if retry != 15*time.Second {
		t.Fatalf("expected retry after 15s, got %v", retry)
	}

	key := fmt.Sprintf("ratelimit:user-1:%d", now.Truncate(time.Minute).Unix())
	if got := srv.expiry(key); got != 61 {
		t.Fatalf("expected 61s expiry on %s, got %d", key, got)
	}

	if ok, _, _ := limiter.Allow(ctx, "user-2", rule); !ok {
		t.Fatalf("other keys have their own window")
	}

	now = now.Add(20 * time.Second)
	if ok, _, err := limiter.Allow(ctx, "user-1", rule); err != nil || !ok {
		t.Fatalf("next window should pass, got ok=%v err=%v", ok, err)
	}
}

func TestRedisLimiterReportsConnectionErrors(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	limiter := NewRedisLimiter(newTestRedisClient(t, addr), nil)
	ok, _, err := limiter.Allow(context.Background(), "user-1", RateLimitRule{Rate: 1, Burst: 1})
	if err == nil || ok {
		t.Fatalf("expected an error from an unreachable redis, got ok=%v err=%v", ok, err)
	}
}

func TestRedisLimiterDisabledRule(t *testing.T) {
	limiter := NewRedisLimiter(nil, nil)
	ok, retry, err := limiter.Allow(context.Background(), "user-1", RateLimitRule{})
	if err != nil || !ok || retry != 0 {
		t.Fatalf("zero rule should always pass, got ok=%v retry=%v err=%v", ok, retry, err)
	}
}
