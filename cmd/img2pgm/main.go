package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"img2pgm/pkg/batch"
	"img2pgm/pkg/notify"
	"img2pgm/pkg/stats"
)

func main() {
	var (
		imageType   = flag.String("ImageType", "png", "png or jpg")
		savePath    = flag.String("SavePath", "./", "save path for pgm files")
		inputDir    = flag.String("InputDir", "./", "directory to read images from")
		keepGoing   = flag.Bool("KeepGoing", false, "skip images that fail to convert instead of stopping")
		reportPath  = flag.String("Report", "", "write a run report to this file")
		redisAddr   = flag.String("Redis", "", "publish progress to a Redis stream at this address")
		redisStream = flag.String("RedisStream", notify.DefaultStream, "Redis stream name")
		mqttBroker  = flag.String("MQTTBroker", "", "publish progress to this MQTT broker, e.g. tcp://localhost:1883")
		mqttTopic   = flag.String("MQTTTopic", notify.DefaultTopic, "MQTT topic for progress events")
	)
	flag.Parse()

	log.SetPrefix("img2pgm: ")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sinks, err := openSinks(ctx, *redisAddr, *redisStream, *mqttBroker, *mqttTopic)
	if err != nil {
		log.Fatalf("Failed to connect progress sink: %v", err)
	}

	cfg := batch.Config{
		ImageType: *imageType,
		InputDir:  *inputDir,
		SavePath:  *savePath,
		KeepGoing: *keepGoing,
	}
	runner := batch.NewRunner(cfg, os.Stdout, log.Default(), sinks)
	summary, runErr := runner.Run(ctx)

	if sinks != nil {
		if err := sinks.Close(); err != nil {
			log.Printf("Failed to close progress sinks: %v", err)
		}
	}

	if *reportPath != "" {
		if err := stats.WriteRunSummary(*reportPath, summary); err != nil {
			log.Printf("Failed to write report: %v", err)
		} else {
			log.Printf("Report written to %s", *reportPath)
		}
	}

	if runErr != nil {
		stop()
		log.Fatalf("%v", runErr)
	}
}

// openSinks connects every configured progress sink. It returns nil when
// none is configured.
func openSinks(ctx context.Context, redisAddr, stream, broker, topic string) (notify.Notifier, error) {
	var sinks notify.Multi

	if redisAddr != "" {
		rs, err := notify.NewRedisStream(ctx, redisAddr, stream)
		if err != nil {
			return nil, err
		}
		log.Printf("Publishing progress to Redis stream %s at %s", stream, redisAddr)
		sinks = append(sinks, rs)
	}

	if broker != "" {
		hostname, _ := os.Hostname()
		clientID := fmt.Sprintf("img2pgm-%s-%d", hostname, time.Now().Unix())
		m, err := notify.NewMQTT(broker, clientID, topic)
		if err != nil {
			if cerr := sinks.Close(); cerr != nil {
				log.Printf("Failed to close progress sinks: %v", cerr)
			}
			return nil, err
		}
		log.Printf("Publishing progress to MQTT topic %s at %s", topic, broker)
		sinks = append(sinks, m)
	}

	if len(sinks) == 0 {
		return nil, nil
	}
	return sinks, nil
}
