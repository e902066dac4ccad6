package nats

import (
	"os"

	"github.com/nats-io/nats.go"
)

type Nats struct {
	Url   string
	Token string
	Conn  *nats.Conn
}

// Connect dials the NATS server named by NATS_URL. An empty NATS_URL means
// the deployment runs without the event bus; callers get (nil, nil) and
// must treat the bus as disabled.
func Connect() (*Nats, error) {
	n := &Nats{
		Url:   os.Getenv("NATS_URL"),
		Token: os.Getenv("NATS_TOKEN"),
	}

	if n.Url == "" {
		return nil, nil
	}

	opts := []nats.Option{
		nats.Name("NATS Connection"),
	}

	// if token provided
	if n.Token != "" {
		opts = append(opts, nats.Token(n.Token))
	}

	conn, err := nats.Connect(n.Url, opts...)
	if err != nil {
		return nil, err
	}

	n.Conn = conn

	return n, nil
}
