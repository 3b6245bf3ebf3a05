package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/RezDev94/ferris-db/internal/client"
	"github.com/RezDev94/ferris-db/internal/config"
)

var (
	host = flag.String("h", config.DefaultHost, "server host")
	port = flag.String("p", strconv.Itoa(config.DefaultPort), "server port")
)

func main() {
	flag.Parse()
	addr := address(*host, *port)

	c, err := client.Dial(addr, 2*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to %s: %v\n", addr, err)
		os.Exit(1)
	}
	defer c.Close()

	if args := flag.Args(); len(args) > 0 {
		if err := oneshot(c, strings.Join(args, " "), os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("Connected to ferris-db at %s\n", addr)
	fmt.Println("Type EXIT to quit.")
	fmt.Println()
	if err := interactive(c, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// address joins host and port; an unusable port means the default one.
func address(host, port string) string {
	return net.JoinHostPort(host, strconv.Itoa(config.ParsePort(port)))
}

func oneshot(c *client.Client, line string, out io.Writer) error {
	resp, err := c.Do(line)
	if err != nil {
		return err
	}
	printResponse(out, resp)
	return nil
}

func interactive(c *client.Client, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "FerrisDB> ")
		if !sc.Scan() {
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if client.Keyword(line) == "EXIT" {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}
		resp, err := c.Do(line)
		if err != nil {
			return err
		}
		printResponse(out, resp)
	}
}

func printResponse(out io.Writer, resp client.Response) {
	for _, l := range resp.Lines {
		fmt.Fprintln(out, l)
	}
}
