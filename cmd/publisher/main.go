package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	stan "github.com/nats-io/stan.go"
	kafkago "github.com/segmentio/kafka-go"
)

// publisher читает строки журнала заказов (JSON по одной на строку) из stdin
// и публикует их в выбранный транспорт.
func main() {
	transport := flag.String("transport", getenv("ORDER_LOG_TRANSPORT", "stan"), "stan | kafka")
	flag.Parse()

	var publish func(ctx context.Context, b []byte) error
	var closeFn func()
	switch *transport {
	case "stan":
		clusterID := getenv("STAN_CLUSTER_ID", "inv-cluster")
		clientID := getenv("STAN_PUB_ID", "inv-publisher")
		natsURL := getenv("NATS_URL", "nats://localhost:4223")
		subject := getenv("STAN_SUBJECT", "order-logs")

		sc, err := stan.Connect(clusterID, clientID, stan.NatsURL(natsURL))
		if err != nil {
			log.Fatalf("stan connect: %v", err)
		}
		publish = func(_ context.Context, b []byte) error { return sc.Publish(subject, b) }
		closeFn = func() { _ = sc.Close() }
	case "kafka":
		w := &kafkago.Writer{
			Addr:         kafkago.TCP(strings.Split(getenv("KAFKA_BROKERS", "localhost:9092"), ",")...),
			Topic:        getenv("KAFKA_TOPIC", "order-logs"),
			Balancer:     &kafkago.Hash{},
			RequiredAcks: kafkago.RequireAll,
		}
		publish = func(ctx context.Context, b []byte) error {
			// ключ — order_id, чтобы повторы попадали в ту же партицию
			var head struct {
				OrderID string `json:"order_id"`
			}
			_ = json.Unmarshal(b, &head)
			return w.WriteMessages(ctx, kafkago.Message{Key: []byte(head.OrderID), Value: b})
		}
		closeFn = func() { _ = w.Close() }
	default:
		log.Fatalf("unknown transport %q", *transport)
	}
	defer closeFn()

	sc := bufio.NewScanner(os.Stdin)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	n := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !json.Valid([]byte(line)) {
			log.Printf("skip invalid json: %.80s", line)
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := publish(ctx, []byte(line))
		cancel()
		if err != nil {
			log.Fatalf("publish: %v", err)
		}
		n++
	}
	if err := sc.Err(); err != nil {
		log.Fatalf("read stdin: %v", err)
	}
	log.Printf("published %d messages via %s", n, *transport)
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
