package main

import (
	"github.com/jackzampolin/docextract/internal/api"
	"github.com/jackzampolin/docextract/internal/extract"
	"github.com/jackzampolin/docextract/internal/server/endpoints"
)

var serverURL string

func getServerURL() string {
	if serverURL != "" {
		return serverURL
	}
	if mgr, err := loadConfig(); err == nil {
		return mgr.Get().Service.BaseURL
	}
	return "http://localhost:8000"
}

// clientFor builds a client for url with the configured token and timeout.
func clientFor(url string) *extract.Client {
	mgr, err := loadConfig()
	if err != nil {
		return extract.NewClient(extract.Config{BaseURL: url, Logger: newLogger()})
	}
	return newClient(mgr.Get(), url, newLogger())
}

func init() {
	registry := api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{Client: clientFor}) {
		registry.Register(ep)
	}

	apiCmd := registry.BuildCommands(getServerURL)
	apiCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Service URL (default: service.base_url from config)")

	rootCmd.AddCommand(apiCmd)
}
