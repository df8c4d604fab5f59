/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	spfvpr "github.com/spf13/viper"
)

const baseYAML = `
channels:
  - peer_url: "opc.tcp://peer:4840"
    security_policy_uri: "http://opcfoundation.org/UA/SecurityPolicy#Basic256Sha256"
    security_mode: 3
    requested_lifetime: 1h
endpoints:
  - endpoint_url: "opc.tcp://0.0.0.0:4840"
    accepted_policies:
      - policy_uri: "http://opcfoundation.org/UA/SecurityPolicy#None"
        modes_mask: 2
`

func newTestViper(t *testing.T, yaml string) (*spfvpr.Viper, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "uacore.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	v := spfvpr.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}
	return v, path
}

func TestChannelConfigDecodesFields(t *testing.T) {
	v, _ := newTestViper(t, baseYAML)
	s, err := New(v, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	cfg, err := s.ChannelConfig(0)
	if err != nil {
		t.Fatalf("ChannelConfig(0): %v", err)
	}
	if cfg.PeerURL != "opc.tcp://peer:4840" {
		t.Fatalf("unexpected PeerURL: %q", cfg.PeerURL)
	}
	if cfg.SecurityMode != 3 {
		t.Fatalf("unexpected SecurityMode: %d", cfg.SecurityMode)
	}
	if cfg.RequestedLifetime != time.Hour {
		t.Fatalf("unexpected RequestedLifetime: %v", cfg.RequestedLifetime)
	}
}

func TestEndpointConfigDecodesPolicies(t *testing.T) {
	v, _ := newTestViper(t, baseYAML)
	s, err := New(v, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	cfg, err := s.EndpointConfig(0)
	if err != nil {
		t.Fatalf("EndpointConfig(0): %v", err)
	}
	if cfg.EndpointURL != "opc.tcp://0.0.0.0:4840" {
		t.Fatalf("unexpected EndpointURL: %q", cfg.EndpointURL)
	}
	if len(cfg.AcceptedPolicies) != 1 || cfg.AcceptedPolicies[0].ModesMask != 2 {
		t.Fatalf("unexpected AcceptedPolicies: %+v", cfg.AcceptedPolicies)
	}
}

func TestUnknownIndexReturnsError(t *testing.T) {
	v, _ := newTestViper(t, baseYAML)
	s, err := New(v, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := s.ChannelConfig(99); err == nil || !err.IsCode(ErrUnknownChannel) {
		t.Fatalf("expected ErrUnknownChannel, got %v", err)
	}
	if _, err := s.EndpointConfig(99); err == nil || !err.IsCode(ErrUnknownEndpoint) {
		t.Fatalf("expected ErrUnknownEndpoint, got %v", err)
	}
}

func TestReloadSwapsSnapshotWithoutMutatingHandedOutRecord(t *testing.T) {
	v, path := newTestViper(t, baseYAML)
	s, err := New(v, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	before, err := s.ChannelConfig(0)
	if err != nil {
		t.Fatalf("ChannelConfig(0): %v", err)
	}

	updated := `
channels:
  - peer_url: "opc.tcp://peer2:4840"
    security_policy_uri: "http://opcfoundation.org/UA/SecurityPolicy#Basic256Sha256"
    security_mode: 1
    requested_lifetime: 2h
`
	if err := os.WriteFile(path, []byte(updated), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}
	if rerr := s.reload(); rerr != nil {
		t.Fatalf("reload: %v", rerr)
	}

	if before.PeerURL != "opc.tcp://peer:4840" {
		t.Fatalf("previously handed-out record mutated: %+v", before)
	}

	after, err := s.ChannelConfig(0)
	if err != nil {
		t.Fatalf("ChannelConfig(0) after reload: %v", err)
	}
	if after.PeerURL != "opc.tcp://peer2:4840" {
		t.Fatalf("expected reloaded PeerURL, got %q", after.PeerURL)
	}
}

func TestCertificateFileNotFoundReturnsError(t *testing.T) {
	v, _ := newTestViper(t, `
channels:
  - peer_url: "opc.tcp://peer:4840"
    client_certificate_file: "/nonexistent/client.pem"
`)
	if _, err := New(v, nil); err == nil || !err.IsCode(ErrCertificateRead) {
		t.Fatalf("expected ErrCertificateRead, got %v", err)
	}
}

func TestCertificateFileIsReadIntoRecord(t *testing.T) {
	dir := t.TempDir()
	certPath := filepath.Join(dir, "client.pem")
	if err := os.WriteFile(certPath, []byte("fake-cert-bytes"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	v, _ := newTestViper(t, `
channels:
  - peer_url: "opc.tcp://peer:4840"
    client_certificate_file: "`+certPath+`"
`)
	s, err := New(v, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	cfg, err := s.ChannelConfig(0)
	if err != nil {
		t.Fatalf("ChannelConfig(0): %v", err)
	}
	if string(cfg.ClientCertificate) != "fake-cert-bytes" {
		t.Fatalf("unexpected ClientCertificate: %q", cfg.ClientCertificate)
	}
}
