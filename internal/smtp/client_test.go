package smtp

import (
	"bufio"
	"context"
	"encoding/base64"
	"net"
	"strings"
	"testing"
	"time"
)

// fakeRelay runs a scripted SMTP conversation on a loopback listener.
// handle is invoked with the accepted connection; the listener closes
// when the test ends.
func fakeRelay(t *testing.T, handle func(c net.Conn, r *bufio.Reader)) (host string, port int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn, bufio.NewReader(conn))
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port
}

func reply(c net.Conn, line string) {
	c.Write([]byte(line + "\r\n"))
}

func readCmd(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	line, err := r.ReadString('\n')
	if err != nil {
		t.Errorf("server read: %v", err)
		return ""
	}
	return strings.TrimRight(line, "\r\n")
}

// readData consumes the DATA phase up to the terminating dot line.
func readData(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	var b strings.Builder
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Errorf("server read data: %v", err)
			return b.String()
		}
		if line == ".\r\n" {
			return b.String()
		}
		b.WriteString(line)
	}
}

func TestSendFullSession(t *testing.T) {
	data := make(chan string, 1)
	cmds := make(chan string, 16)

	host, port := fakeRelay(t, func(c net.Conn, r *bufio.Reader) {
		reply(c, "220 relay.test ESMTP")
		cmds <- readCmd(t, r) // EHLO
		reply(c, "250-relay.test")
		reply(c, "250-SIZE 35882577")
		reply(c, "250 AUTH LOGIN PLAIN")
		cmds <- readCmd(t, r) // AUTH LOGIN
		reply(c, "334 VXNlcm5hbWU6")
		cmds <- readCmd(t, r) // base64 user
		reply(c, "334 UGFzc3dvcmQ6")
		cmds <- readCmd(t, r) // base64 pass
		reply(c, "235 2.7.0 Authentication successful")
		cmds <- readCmd(t, r) // MAIL FROM
		reply(c, "250 OK")
		cmds <- readCmd(t, r) // RCPT TO
		reply(c, "250 OK")
		cmds <- readCmd(t, r) // DATA
		reply(c, "354 End data with <CR><LF>.<CR><LF>")
		data <- readData(t, r)
		reply(c, "250 OK queued")
		readCmd(t, r) // QUIT
		reply(c, "221 Bye")
	})

	client := New(Config{
		Host:       host,
		Port:       port,
		Encryption: EncryptionNone,
		Username:   "mailer@relay.test",
		Password:   "hunter2",
		LocalName:  "park.test",
	})
	err := client.Send(context.Background(), Message{
		From:     "noreply@park.test",
		FromName: "域名出售",
		To:       "owner@park.test",
		ReplyTo:  "buyer@example.com",
		Subject:  "New offer 报价",
		HTML:     "<p>Hello</p>\r\n.\r\nplain dot line above",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	want := []string{
		"EHLO park.test",
		"AUTH LOGIN",
		base64.StdEncoding.EncodeToString([]byte("mailer@relay.test")),
		base64.StdEncoding.EncodeToString([]byte("hunter2")),
		"MAIL FROM: <noreply@park.test>",
		"RCPT TO: <owner@park.test>",
		"DATA",
	}
	for _, w := range want {
		got := <-cmds
		if got != w {
			t.Fatalf("command = %q, want %q", got, w)
		}
	}

	body := <-data
	for _, h := range []string{
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
		"Content-Transfer-Encoding: 8bit",
		"To: <owner@park.test>",
		"Reply-To: <buyer@example.com>",
	} {
		if !strings.Contains(body, h) {
			t.Errorf("data missing header %q", h)
		}
	}
	if !strings.Contains(body, "Subject: =?UTF-8?q?") {
		t.Errorf("subject not Q-encoded: %q", body)
	}
	if !strings.Contains(body, "..\r\n") {
		t.Errorf("lone dot line not stuffed")
	}
	if strings.Contains(body, "\r\n.\r\n") {
		t.Errorf("unstuffed terminator sequence inside body")
	}
}

func TestSendHELOFallback(t *testing.T) {
	host, port := fakeRelay(t, func(c net.Conn, r *bufio.Reader) {
		reply(c, "220 old.test SMTP")
		readCmd(t, r) // EHLO
		reply(c, "502 5.5.1 Unrecognized command")
		cmd := readCmd(t, r)
		if !strings.HasPrefix(cmd, "HELO ") {
			t.Errorf("expected HELO retry, got %q", cmd)
		}
		reply(c, "250 old.test")
		readCmd(t, r)
		reply(c, "250 OK")
		readCmd(t, r)
		reply(c, "250 OK")
		readCmd(t, r)
		reply(c, "354 go ahead")
		readData(t, r)
		reply(c, "250 OK")
		readCmd(t, r)
		reply(c, "221 Bye")
	})

	client := New(Config{Host: host, Port: port, Encryption: EncryptionNone})
	err := client.Send(context.Background(), Message{
		From: "a@b.test", To: "c@d.test", Subject: "hi", HTML: "<p>hi</p>",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
}

func TestSendRejectedRecipientAbortsBeforeData(t *testing.T) {
	sawData := make(chan bool, 1)
	host, port := fakeRelay(t, func(c net.Conn, r *bufio.Reader) {
		reply(c, "220 relay.test ESMTP")
		readCmd(t, r)
		reply(c, "250 relay.test")
		readCmd(t, r) // MAIL FROM
		reply(c, "250 OK")
		readCmd(t, r) // RCPT TO
		reply(c, "550 5.1.1 No such user")
		// Anything further would be a protocol violation by the client.
		if _, err := r.ReadString('\n'); err == nil {
			sawData <- true
		} else {
			sawData <- false
		}
	})

	client := New(Config{Host: host, Port: port, Encryption: EncryptionNone})
	err := client.Send(context.Background(), Message{
		From: "a@b.test", To: "ghost@d.test", Subject: "hi", HTML: "x",
	})
	if err == nil {
		t.Fatal("expected error for rejected recipient")
	}
	if !strings.Contains(err.Error(), "550") {
		t.Fatalf("error should carry the reply: %v", err)
	}
	select {
	case more := <-sawData:
		if more {
			t.Fatal("client kept talking after RCPT rejection")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server still waiting")
	}
}

func TestSendAcceptedRelayRecipient(t *testing.T) {
	host, port := fakeRelay(t, func(c net.Conn, r *bufio.Reader) {
		reply(c, "220 relay.test ESMTP")
		readCmd(t, r)
		reply(c, "250 relay.test")
		readCmd(t, r)
		reply(c, "250 OK")
		readCmd(t, r)
		reply(c, "251 User not local; will forward")
		readCmd(t, r)
		reply(c, "354 go ahead")
		readData(t, r)
		reply(c, "250 OK")
		readCmd(t, r)
		reply(c, "221 Bye")
	})

	client := New(Config{Host: host, Port: port, Encryption: EncryptionNone})
	err := client.Send(context.Background(), Message{
		From: "a@b.test", To: "remote@d.test", Subject: "hi", HTML: "x",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
}

func TestSendBadGreeting(t *testing.T) {
	host, port := fakeRelay(t, func(c net.Conn, r *bufio.Reader) {
		reply(c, "554 relay.test not accepting mail")
	})

	client := New(Config{Host: host, Port: port, Encryption: EncryptionNone})
	err := client.Send(context.Background(), Message{
		From: "a@b.test", To: "c@d.test", Subject: "hi", HTML: "x",
	})
	if err == nil || !strings.Contains(err.Error(), "554") {
		t.Fatalf("expected greeting failure, got %v", err)
	}
}
