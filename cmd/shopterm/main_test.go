package main

import "testing"

func TestAPIURLDefault(t *testing.T) {
	t.Setenv("SHOPTERM_API_URL", "")
	if got := apiURL(); got != "http://localhost:9000/api" {
		t.Errorf("apiURL() = %q", got)
	}
}

func TestAPIURLOverride(t *testing.T) {
	t.Setenv("SHOPTERM_API_URL", "https://shop.example.com/api")
	if got := apiURL(); got != "https://shop.example.com/api" {
		t.Errorf("apiURL() = %q", got)
	}
}
