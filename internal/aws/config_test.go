package aws

import (
	"context"
	"testing"
)

func TestLoadAWSConfig_DefaultRegion(t *testing.T) {
	t.Setenv("AWS_ENDPOINT_OVERRIDE", "")
	t.Setenv("AWS_REGION", "")

	cfg, err := LoadAWSConfig(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Region != "us-east-1" {
		t.Fatalf("expected default region 'us-east-1', got %s", cfg.Region)
	}
	if cfg.BaseEndpoint != nil {
		t.Fatalf("expected no base endpoint, got %s", *cfg.BaseEndpoint)
	}
}

func TestLoadAWSConfig_WithEndpointOverride(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("AWS_ENDPOINT_OVERRIDE", "http://localhost:4566")

	cfg, err := LoadAWSConfig(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Region != "eu-west-1" {
		t.Fatalf("region mismatch, got %s", cfg.Region)
	}
	if cfg.BaseEndpoint == nil || *cfg.BaseEndpoint != "http://localhost:4566" {
		t.Fatalf("expected base endpoint override, got %v", cfg.BaseEndpoint)
	}
}

func TestManagementEndpoint(t *testing.T) {
	cases := map[string]string{
		"wss://abc.execute-api.us-east-1.amazonaws.com/prod":   "https://abc.execute-api.us-east-1.amazonaws.com/prod",
		"ws://localhost:3001":                                  "http://localhost:3001",
		"https://abc.execute-api.us-east-1.amazonaws.com/prod": "https://abc.execute-api.us-east-1.amazonaws.com/prod",
	}
	for in, want := range cases {
		if got := ManagementEndpoint(in); got != want {
			t.Fatalf("ManagementEndpoint(%q) = %q, want %q", in, got, want)
		}
	}
}
