package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"triedb/pkg/client"
	"triedb/pkg/common"
)

const Prompt = "triedb> "

func main() {
	serverAddr := flag.String("addr", "localhost:9090", "triedb TCP server address")
	flag.Parse()

	fmt.Printf("triedb CLI (Target: %s)\n", *serverAddr)
	fmt.Println("Connecting...")

	cli, err := client.Dial(*serverAddr)
	if err != nil {
		fmt.Printf("Connection failed: %v\n", err)
		fmt.Println("Tip: Ensure the server is running (e.g. go run ./cmd/server).")
		return
	}
	defer cli.Close()
	fmt.Println("Connected! Type 'help' for commands.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(Prompt)
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])

		switch cmd {
		case "put", "set":
			handlePut(cli, parts)
		case "del", "rm":
			handleDel(cli, parts)
		case "range":
			handleRange(cli, parts)
		case "split":
			handleSplit(cli, parts)
		case "help":
			printHelp()
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Printf("Unknown command: '%s'. Type 'help'.\n", cmd)
		}
	}
}

func handlePut(cli *client.Client, parts []string) {
	if len(parts) < 5 {
		fmt.Println("Usage: put <field> <kind> <doc> <value>")
		return
	}

	kind, err := common.ParseKind(parts[2])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	doc, err := strconv.ParseUint(parts[3], 10, 64)
	if err != nil {
		fmt.Println("Error: doc must be an unsigned integer")
		return
	}
	v, err := common.ParseValue(kind, parts[4])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	start := time.Now()
	err = cli.Put(parts[1], common.DocID(doc), v)
	duration := time.Since(start)

	if err != nil {
		fmt.Printf("Error: %v\n", err)
	} else {
		fmt.Printf("OK (%v)\n", duration)
	}
}

func handleDel(cli *client.Client, parts []string) {
	if len(parts) < 3 {
		fmt.Println("Usage: del <field> <doc>")
		return
	}

	doc, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		fmt.Println("Error: doc must be an unsigned integer")
		return
	}

	start := time.Now()
	err = cli.Delete(parts[1], common.DocID(doc))
	duration := time.Since(start)

	if err != nil {
		fmt.Printf("Error: %v\n", err)
	} else {
		fmt.Printf("Deleted (%v)\n", duration)
	}
}

func handleRange(cli *client.Client, parts []string) {
	if len(parts) < 5 {
		fmt.Println("Usage: range <field> <kind> <min> <max>")
		return
	}

	kind, err := common.ParseKind(parts[2])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	lower, err1 := common.ParseValue(kind, parts[3])
	upper, err2 := common.ParseValue(kind, parts[4])
	if err1 != nil || err2 != nil {
		fmt.Printf("Error: bounds must be %s values\n", kind)
		return
	}

	fmt.Printf("Searching %s in [%s, %s]...\n", parts[1], lower, upper)
	start := time.Now()
	docs, err := cli.Range(parts[1], lower, upper)
	duration := time.Since(start)

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("Found %d docs (%v):\n", len(docs), duration)
	for i, doc := range docs {
		if i >= 20 {
			fmt.Printf("... and %d more\n", len(docs)-20)
			break
		}
		fmt.Printf("  %d\n", doc)
	}
}

func handleSplit(cli *client.Client, parts []string) {
	if len(parts) < 5 {
		fmt.Println("Usage: split <width 32|64> <step> <lower> <upper>")
		return
	}

	width, err1 := strconv.ParseUint(parts[1], 10, 8)
	step, err2 := strconv.ParseUint(parts[2], 10, 8)
	lower, err3 := strconv.ParseInt(parts[3], 10, 64)
	upper, err4 := strconv.ParseInt(parts[4], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		fmt.Println("Error: arguments must be integers")
		return
	}

	subs, err := cli.Split(uint(width), uint(step), lower, upper)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("%d subranges:\n", len(subs))
	for _, s := range subs {
		fmt.Printf("  shift=%-2d [%d, %d]\n", s.Shift, s.Min, s.Max)
	}
}

func printHelp() {
	fmt.Println(`
Commands:
  put <field> <kind> <doc> <value>    Index a value (kind: int64, int32, float64, float32)
  del <field> <doc>                   Remove a document's value
  range <field> <kind> <min> <max>    Documents with min <= value <= max
  split <width> <step> <lower> <upper>
                                      Show the trie subranges covering [lower, upper]
  exit                                Exit CLI
	`)
}
