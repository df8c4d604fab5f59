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
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	spfvpr "github.com/spf13/viper"

	"github.com/nabbar/opcua-core/errors"
	"github.com/nabbar/opcua-core/facade"
	"github.com/nabbar/opcua-core/logger"
)

// rawPolicy mirrors one entry of an endpoint's "accepted_policies" array.
type rawPolicy struct {
	PolicyURI string `mapstructure:"policy_uri"`
	ModesMask uint32 `mapstructure:"modes_mask"`
}

// rawChannel mirrors one entry of the file's "channels" array.
type rawChannel struct {
	PeerURL               string        `mapstructure:"peer_url"`
	SecurityPolicyURI     string        `mapstructure:"security_policy_uri"`
	SecurityMode          uint32        `mapstructure:"security_mode"`
	ClientCertificateFile string        `mapstructure:"client_certificate_file"`
	ServerCertificateFile string        `mapstructure:"server_certificate_file"`
	PKI                   string        `mapstructure:"pki"`
	RequestedLifetime     time.Duration `mapstructure:"requested_lifetime"`
}

// rawEndpoint mirrors one entry of the file's "endpoints" array.
type rawEndpoint struct {
	EndpointURL           string      `mapstructure:"endpoint_url"`
	ServerCertificateFile string      `mapstructure:"server_certificate_file"`
	ServerKeyFile         string      `mapstructure:"server_key_file"`
	PKI                   string      `mapstructure:"pki"`
	AcceptedPolicies      []rawPolicy `mapstructure:"accepted_policies"`
}

type rawFile struct {
	Channels  []rawChannel  `mapstructure:"channels"`
	Endpoints []rawEndpoint `mapstructure:"endpoints"`
}

// snapshot is the immutable, fully-resolved view of one load. A Store
// never edits a snapshot in place; reload builds a new one and swaps the
// pointer, so a record already handed out to a caller stays valid for
// the lifetime of that call (spec SPEC_FULL §A).
type snapshot struct {
	channels  []facade.ChannelConfig
	endpoints []facade.EndpointConfig
}

// Store implements facade.ConfigStore by decoding a viper instance and
// re-decoding it on every fsnotify-driven config change.
type Store struct {
	vpr *spfvpr.Viper
	log logger.Logger
	cur atomic.Value // *snapshot
}

// New builds a Store from an already-configured viper.Viper (config file
// or path already set via SetConfigFile/AddConfigPath), performs the
// initial decode, and starts watching the file for live reload. A nil
// logger falls back to a no-op logger, matching every other Manager's
// construction convention in this module.
func New(v *spfvpr.Viper, log logger.Logger) (*Store, errors.Error) {
	if log == nil {
		log = logger.NewNop()
	}

	s := &Store{vpr: v, log: log}
	if err := s.reload(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		s.log.Info("config file changed, reloading", "op", e.Op.String(), "file", e.Name)
		if err := s.reload(); err != nil {
			s.log.Error("config reload failed, keeping previous snapshot", "error", err.Error())
		}
	})
	v.WatchConfig()

	return s, nil
}

// reload decodes the current state of the viper instance into a fresh
// snapshot and swaps it in. A decode failure leaves the previous
// snapshot untouched and is reported to the caller.
func (s *Store) reload() errors.Error {
	var raw rawFile
	if err := s.vpr.Unmarshal(&raw); err != nil {
		return ErrDecodeFailed.Error(err)
	}

	snap := &snapshot{
		channels:  make([]facade.ChannelConfig, 0, len(raw.Channels)),
		endpoints: make([]facade.EndpointConfig, 0, len(raw.Endpoints)),
	}

	for _, c := range raw.Channels {
		clientCert, err := readOptionalFile(c.ClientCertificateFile)
		if err != nil {
			return err
		}
		serverCert, err := readOptionalFile(c.ServerCertificateFile)
		if err != nil {
			return err
		}

		cfg := facade.ChannelConfig{
			PeerURL:           c.PeerURL,
			SecurityPolicyURI: c.SecurityPolicyURI,
			SecurityMode:      c.SecurityMode,
			ClientCertificate: clientCert,
			ServerCertificate: serverCert,
			RequestedLifetime: c.RequestedLifetime,
		}
		if c.PKI != "" {
			cfg.PKI = c.PKI
		}
		snap.channels = append(snap.channels, cfg)
	}

	for _, e := range raw.Endpoints {
		serverCert, err := readOptionalFile(e.ServerCertificateFile)
		if err != nil {
			return err
		}
		serverKey, err := readOptionalFile(e.ServerKeyFile)
		if err != nil {
			return err
		}

		policies := make([]facade.SecurityPolicyMode, 0, len(e.AcceptedPolicies))
		for _, p := range e.AcceptedPolicies {
			policies = append(policies, facade.SecurityPolicyMode{
				PolicyURI: p.PolicyURI,
				ModesMask: p.ModesMask,
			})
		}

		cfg := facade.EndpointConfig{
			EndpointURL:       e.EndpointURL,
			ServerCertificate: serverCert,
			ServerKey:         serverKey,
			AcceptedPolicies:  policies,
		}
		if e.PKI != "" {
			cfg.PKI = e.PKI
		}
		snap.endpoints = append(snap.endpoints, cfg)
	}

	s.cur.Store(snap)
	return nil
}

func readOptionalFile(path string) ([]byte, errors.Error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrCertificateRead.Error(err)
	}
	return b, nil
}

func (s *Store) snapshot() *snapshot {
	return s.cur.Load().(*snapshot)
}

// ChannelConfig implements facade.ConfigStore.
func (s *Store) ChannelConfig(idx uint32) (facade.ChannelConfig, errors.Error) {
	snap := s.snapshot()
	if idx >= uint32(len(snap.channels)) {
		return facade.ChannelConfig{}, ErrUnknownChannel.Error(nil)
	}
	return snap.channels[idx], nil
}

// EndpointConfig implements facade.ConfigStore.
func (s *Store) EndpointConfig(idx uint32) (facade.EndpointConfig, errors.Error) {
	snap := s.snapshot()
	if idx >= uint32(len(snap.endpoints)) {
		return facade.EndpointConfig{}, ErrUnknownEndpoint.Error(nil)
	}
	return snap.endpoints[idx], nil
}
