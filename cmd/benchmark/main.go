package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"
	"triedb/pkg/client"
	"triedb/pkg/common"
)

func main() {
	tcpAddr := flag.String("tcp", "localhost:9090", "TCP server address")
	nDocs := flag.Int("docs", 20000, "Number of documents to index")
	nReq := flag.Int("n", 2000, "Number of range queries")
	width := flag.Int64("width", 10000, "Width of each query range")
	field := flag.String("field", "bench", "Field to index")
	flag.Parse()

	cli, err := client.Dial(*tcpAddr)
	if err != nil {
		log.Fatalf("TCP Connect failed: %v", err)
	}
	defer cli.Close()

	fmt.Printf("triedb Range Benchmark (docs=%d, queries=%d, width=%d)\n", *nDocs, *nReq, *width)
	fmt.Println("---------------------------------------------------")

	rng := rand.New(rand.NewSource(1))
	const span = int64(1) << 32

	fmt.Println(">> Indexing...")
	start := time.Now()
	for i := 0; i < *nDocs; i++ {
		v := rng.Int63n(span) - span/2
		if err := cli.Put(*field, common.DocID(i), common.Int64Value(v)); err != nil {
			log.Fatalf("Put failed: %v", err)
		}
	}
	indexDuration := time.Since(start)
	fmt.Printf("   Index Time: %v | QPS: %.0f\n\n", indexDuration, float64(*nDocs)/indexDuration.Seconds())

	fmt.Println(">> Range queries...")
	hits := 0
	start = time.Now()
	for i := 0; i < *nReq; i++ {
		lo := rng.Int63n(span) - span/2
		docs, err := cli.Range(*field, common.Int64Value(lo), common.Int64Value(lo+*width))
		if err != nil {
			log.Fatalf("Range failed: %v", err)
		}
		hits += len(docs)
	}
	queryDuration := time.Since(start)
	fmt.Printf("   Query Time: %v | QPS: %.0f | avg hits: %.2f\n", queryDuration,
		float64(*nReq)/queryDuration.Seconds(), float64(hits)/float64(*nReq))
	fmt.Println("---------------------------------------------------")
}
