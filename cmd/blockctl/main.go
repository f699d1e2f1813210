// blockctl drives the attachment pipeline from the command line: it plays
// the role of the editor host, attaching files or URLs to a block and
// retrieving stored attachments.
//
// Usage:
//
//	blockctl upload -kind pdf|audio [-gateway URL] <file>
//	blockctl attach -kind pdf|audio <url>
//	blockctl fetch [-dir DIR] [-pick] <url>
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/joho/godotenv/autoload"

	"scribe/internal/client/blocks"
	"scribe/internal/client/download"
	"scribe/internal/client/uploader"
	"scribe/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "upload":
		err = runUpload(os.Args[2:])
	case "attach":
		err = runAttach(os.Args[2:])
	case "fetch":
		err = runFetch(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: blockctl <upload|attach|fetch> [flags] <file|url>")
}

func newBlock(kind string, client *uploader.Client) (*blocks.Block, error) {
	switch kind {
	case "pdf":
		return blocks.NewPDFBlock(client, nil), nil
	case "audio":
		return blocks.NewAudioBlock(client, nil), nil
	default:
		return nil, fmt.Errorf("unknown block kind %q (want pdf or audio)", kind)
	}
}

func runUpload(args []string) error {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	kind := fs.String("kind", "pdf", "block kind: pdf or audio")
	gateway := fs.String("gateway", config.GetEnvOrDefault("GATEWAY_URL", "http://localhost:8080"), "upload gateway base URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("upload needs exactly one file argument")
	}

	path := fs.Arg(0)
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	block, err := newBlock(*kind, uploader.NewClient(*gateway, nil))
	if err != nil {
		return err
	}
	defer block.Close()

	err = block.AttachFile(uploader.File{
		Name:        filepath.Base(path),
		ContentType: contentTypeFor(path),
		Size:        info.Size(),
		Reader:      f,
	})
	if err != nil {
		return fmt.Errorf("%s", block.Err())
	}

	return printData(block.Save())
}

func runAttach(args []string) error {
	fs := flag.NewFlagSet("attach", flag.ExitOnError)
	kind := fs.String("kind", "pdf", "block kind: pdf or audio")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("attach needs exactly one url argument")
	}

	block, err := newBlock(*kind, nil)
	if err != nil {
		return err
	}
	defer block.Close()

	if err := block.AttachURL(fs.Arg(0)); err != nil {
		return fmt.Errorf("%s", block.Err())
	}

	return printData(block.Save())
}

func runFetch(args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	dir := fs.String("dir", ".", "directory to save into")
	pick := fs.Bool("pick", false, "prompt for a destination path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("fetch needs exactly one url argument")
	}

	var picker download.Picker
	if *pick {
		picker = &stdinPicker{}
	}

	r := download.NewRetriever(nil, picker, *dir)
	outcome, err := r.Retrieve(context.Background(), fs.Arg(0), "")
	if err != nil {
		return err
	}

	switch {
	case outcome.Cancelled:
		// user backed out; nothing to report
	case outcome.Strategy == download.StrategyBrowser:
		fmt.Println("Opened in browser")
	default:
		fmt.Println("Saved to", outcome.Path)
	}
	return nil
}

// stdinPicker asks for a destination path on the terminal. An empty answer
// cancels.
type stdinPicker struct{}

func (p *stdinPicker) Pick(suggested string) (string, error) {
	fmt.Printf("Save as [%s]: ", suggested)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", download.ErrCancelled
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", download.ErrCancelled
	}
	return line, nil
}

func contentTypeFor(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		// strip charset parameters, the gateway matches exact types
		if i := strings.IndexByte(t, ';'); i >= 0 {
			t = strings.TrimSpace(t[:i])
		}
		return t
	}
	return "application/octet-stream"
}

func printData(data blocks.AttachmentData) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
