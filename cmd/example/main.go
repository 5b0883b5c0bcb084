package main

import (
	"fmt"
	"log"
	"time"
	"triedb/pkg/client"
	"triedb/pkg/common"
)

func main() {
	fmt.Println("Connecting to triedb...")
	cli, err := client.Dial("localhost:9090")
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer cli.Close()

	prices := []float64{-3.5, 0, 1.25, 9.99, 42, 1e6}
	start := time.Now()
	for i, p := range prices {
		if err := cli.Put("price", common.DocID(i+1), common.Float64Value(p)); err != nil {
			log.Fatalf("Put failed: %v", err)
		}
	}
	fmt.Printf("Indexed %d prices in %v\n", len(prices), time.Since(start))

	start = time.Now()
	docs, err := cli.Range("price", common.Float64Value(0), common.Float64Value(50))
	if err != nil {
		log.Fatalf("Range failed: %v", err)
	}
	fmt.Printf("price in [0, 50]: docs %v (in %v)\n", docs, time.Since(start))

	subs, err := cli.Split(64, 4, 0, 1087)
	if err != nil {
		log.Fatalf("Split failed: %v", err)
	}
	for _, s := range subs {
		fmt.Printf("  shift=%d [%d, %d]\n", s.Shift, s.Min, s.Max)
	}
}
