package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"markpad/internal/content"
	"markpad/internal/export"
	"markpad/internal/net"
	"markpad/internal/state"
	"markpad/internal/ui"
)

const defaultPort = 8888

func main() {
	var (
		file     = flag.String("file", "", "image or PDF to annotate (path or http(s) URL)")
		typeFlag = flag.String("type", "", "content type: image or pdf (default: guessed from the extension)")
		annFile  = flag.String("annotations", "", "JSON file holding the annotation sequence; rewritten on every change")
		outDir   = flag.String("out", ".", "directory export artifacts are written to (empty disables the export control)")
		readOnly = flag.Bool("readonly", false, "view annotations without editing")
		syncAddr = flag.String("sync", "", `collaborator sync endpoint: a ws:// URL, "auto" to discover one on the LAN, or empty to disable`)
		serve    = flag.Bool("serve", false, "run the sync hub instead of the editor")
		port     = flag.Int("port", defaultPort, "hub port (with -serve)")
	)
	flag.Parse()

	if *serve {
		runHub(*port)
		return
	}
	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}
	runEditor(*file, *typeFlag, *annFile, *outDir, *syncAddr, *readOnly)
}

func runHub(port int) {
	log.Println("Starting as sync HUB")
	server, err := net.Advertise(port)
	if err != nil {
		log.Printf("mDNS advertise failed, hub is discoverable by address only: %v", err)
	} else {
		defer server.Shutdown()
	}

	if ip, err := net.LocalIP(); err == nil {
		log.Printf("sync endpoint: ws://%s:%d/sync", ip, port)
	}

	hub := net.NewHub()
	log.Fatal(hub.ListenAndServe(port))
}

func runEditor(file, typeFlag, annFile, outDir, syncAddr string, readOnly bool) {
	typ := content.Type(typeFlag)
	if typeFlag == "" {
		typ = content.DetectType(file)
	}

	src, err := content.Open(file, typ)
	if err != nil {
		log.Fatalf("Failed to open content: %v", err)
	}
	defer src.Close()
	log.Printf("Opened %s as %s (%d page(s))", file, typ, src.PageCount())

	initial, err := loadAnnotations(annFile)
	if err != nil {
		log.Fatalf("Failed to load annotations: %v", err)
	}
	store := state.NewStore(initial)

	var sync *net.Client
	if syncAddr != "" {
		url := syncAddr
		if syncAddr == "auto" {
			url, err = discoverSync()
			if err != nil {
				log.Printf("sync discovery failed, continuing without sync: %v", err)
			}
		}
		if url != "" {
			sync = net.NewClient(url)
			if err := sync.Connect(); err != nil {
				log.Printf("sync unavailable, will retry on next change: %v", err)
			}
			defer sync.Close()
		}
	}

	store.OnChange = func(anns []state.Annotation) {
		if annFile != "" {
			if err := saveAnnotations(annFile, anns); err != nil {
				log.Printf("Failed to save annotations: %v", err)
			}
		}
		if sync != nil {
			sync.PushAnnotations(anns)
		}
	}

	var onExport func(export.Artifact)
	if outDir != "" {
		onExport = func(a export.Artifact) {
			path := filepath.Join(outDir, a.Name)
			if err := os.WriteFile(path, a.Data, 0o644); err != nil {
				log.Printf("Failed to write export: %v", err)
				return
			}
			log.Printf("Exported %s (%d bytes)", path, len(a.Data))
		}
	}

	ui.RunApp(ui.Config{
		Title:    fmt.Sprintf("markpad - %s", filepath.Base(file)),
		Source:   src,
		Type:     typ,
		Store:    store,
		ReadOnly: readOnly,
		OnExport: onExport,
	})
}

// discoverSync browses the LAN for an advertised hub and returns its
// websocket URL.
func discoverSync() (string, error) {
	found := make(chan string, 8)
	if err := net.Browse(func(addr string) {
		select {
		case found <- addr:
		default:
		}
	}); err != nil {
		return "", err
	}
	select {
	case addr := <-found:
		return fmt.Sprintf("ws://%s/sync", addr), nil
	case <-time.After(200 * time.Millisecond):
		return "", errors.New("no sync endpoint found")
	}
}

func loadAnnotations(path string) ([]state.Annotation, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var anns []state.Annotation
	if err := json.Unmarshal(data, &anns); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return anns, nil
}

func saveAnnotations(path string, anns []state.Annotation) error {
	data, err := json.MarshalIndent(anns, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
