// Command kzgroup-demo joins a consumer group against a local ZooKeeper
// ensemble and prints every message it is assigned, using the reference
// inner consumer in internal/refconsumer. It exists to exercise kzgroup
// end to end the way the teacher's own cmd/ binaries exercise a client
// against a live broker.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"example.com/kzgroup"
	"example.com/kzgroup/internal/refconsumer"
)

func main() {
	zkHost := flag.String("zk-host", "127.0.0.1:2181", "coordination-service endpoint")
	groupName := flag.String("group", "demo-group", "consumer group name")
	topicName := flag.String("topic", "demo-topic", "topic name")
	partitions := flag.Int("partitions", 4, "number of partitions on the topic")
	flag.Parse()

	logger := kzgroup.NewBasicLogger(os.Stderr, kzgroup.LogLevelInfo)
	topic := refconsumer.NewStaticTopic(*topicName, 1, *partitions)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		cancel()
	}()

	g, err := kzgroup.Join(ctx, *groupName, topic, refconsumer.NewFactory(),
		kzgroup.ZKHost(*zkHost),
		kzgroup.WithLogger(logger),
	)
	if err != nil {
		log.Fatalf("join: %v", err)
	}
	defer g.Stop()

	fmt.Printf("joined as %s\n", g.Identity())
	next := g.Messages(ctx)
	for {
		msg, err := next()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if err == kzgroup.ErrNoCurrentConsumer {
				time.Sleep(200 * time.Millisecond)
				continue
			}
			log.Printf("consume: %v", err)
			continue
		}
		fmt.Printf("%s offset=%d value=%s\n", msg.Partition.Canonical(), msg.Offset, msg.Value)
	}
}
