package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nickyhof/PlaygroundDB"
	"github.com/nickyhof/PlaygroundDB/core"
	"github.com/nickyhof/PlaygroundDB/ps"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	port := flag.Int("port", 3306, "TCP port to listen on")
	baseDir := flag.String("baseDir", os.Getenv("PLAYGROUND_DIR"), "Base directory for persistence (memory if empty)")
	gitUrl := flag.String("gitUrl", os.Getenv("PLAYGROUND_GIT_URL"), "Git URL to clone the project store from")
	project := flag.String("project", DefaultProject, "Project for requests that do not name one")
	jwtSecret := flag.String("jwtSecret", os.Getenv("PLAYGROUND_JWT_SECRET"), "Shared secret for JWT authentication (disabled if empty)")
	jwtIssuer := flag.String("jwtIssuer", "", "Expected JWT issuer")
	jwtAudience := flag.String("jwtAudience", "", "Expected JWT audience")
	tlsCert := flag.String("tlsCert", "", "TLS certificate file")
	tlsKey := flag.String("tlsKey", "", "TLS key file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("PlaygroundDB SQL Server v%s\n", Version)
		return
	}

	var persistence *ps.Persistence
	var err error
	if *baseDir == "" {
		log.Println("Using memory persistence")
		persistence, err = ps.NewMemoryPersistence()
		if err != nil {
			log.Fatalf("Failed to initialize memory persistence: %v", err)
		}
	} else {
		log.Printf("Using file persistence: %s", *baseDir)
		var gitUrlPtr *string
		if *gitUrl != "" {
			gitUrlPtr = gitUrl
		}
		persistence, err = ps.NewFilePersistence(*baseDir, gitUrlPtr)
		if err != nil {
			log.Fatalf("Failed to initialize file persistence: %v", err)
		}
	}
	instance := PlaygroundDB.Open(persistence)

	var server *Server
	if *jwtSecret != "" {
		log.Println("JWT authentication enabled")
		server = NewServerWithAuth(instance, &AuthConfig{
			Enabled:   true,
			JWTSecret: *jwtSecret,
			Issuer:    *jwtIssuer,
			Audience:  *jwtAudience,
		})
	} else {
		server = NewServer(instance, core.Identity{
			Name:  "PlaygroundDB Server",
			Email: "server@playgrounddb.local",
		})
	}
	server.Project = *project

	addr := fmt.Sprintf(":%d", *port)
	if *tlsCert != "" || *tlsKey != "" {
		err = server.StartTLS(addr, *tlsCert, *tlsKey)
	} else {
		err = server.Start(addr)
	}
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Printf("║   PlaygroundDB SQL Server v%-10s ║\n", Version)
	fmt.Println("║   SQL playground, saved in Git        ║")
	fmt.Println("╚═══════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Listening on port %d (default project %q)\n", *port, *project)
	fmt.Println("Send scripts or {\"project\", \"query\"} objects, one per line, 'quit' to disconnect")
	fmt.Println()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	server.Stop()
	log.Println("Server stopped")
}
