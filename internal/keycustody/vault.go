package keycustody

import (
	"context"
	"fmt"

	vaultapi "github.com/hashicorp/vault/api"

	"github.com/zenGate-Global/cardano-tx-platform/internal/platformlog"
)

// VaultConfig names the approle credentials and endpoint a VaultStore logs
// into, mirroring the VAULT_ADDR/VAULT_NAMESPACE/OROLE_ID/OSECRET_ID
// environment pairing a deployment supplies.
type VaultConfig struct {
	Address   string
	Namespace string
	RoleID    string
	SecretID  string
	Mount     string
}

// VaultStore is a SecretStore backed by HashiCorp Vault's KV v2 engine,
// authenticating via AppRole and renewing its own token as it nears expiry.
type VaultStore struct {
	client *vaultapi.Client
	cfg    VaultConfig
	logger *platformlog.Logger
}

// NewVaultStore builds a Vault client for cfg.Address/Namespace and logs in
// with the AppRole credentials, returning a store ready for Put/Get.
func NewVaultStore(cfg VaultConfig, logger *platformlog.Logger) (*VaultStore, error) {
	clientCfg := vaultapi.DefaultConfig()
	clientCfg.Address = cfg.Address

	client, err := vaultapi.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("keycustody: building vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	v := &VaultStore{client: client, cfg: cfg, logger: logger}
	if err := v.login(context.Background()); err != nil {
		return nil, err
	}
	return v, nil
}

// login authenticates via AppRole and installs the returned client token;
// it always performs a fresh login and does not reuse an existing token.
func (v *VaultStore) login(ctx context.Context) error {
	secret, err := v.client.Logical().WriteWithContext(ctx, "auth/approle/login", map[string]interface{}{
		"role_id":   v.cfg.RoleID,
		"secret_id": v.cfg.SecretID,
	})
	if err != nil {
		return fmt.Errorf("keycustody: approle login: %w", err)
	}
	if secret == nil || secret.Auth == nil {
		return fmt.Errorf("keycustody: approle login returned no auth info")
	}
	v.client.SetToken(secret.Auth.ClientToken)
	return nil
}

// EnsureToken looks up the current token's self-info and renews it when its
// remaining TTL has fallen below 10 seconds and the token allows renewal
// with headroom under its explicit max TTL; otherwise it logs back in.
func (v *VaultStore) EnsureToken(ctx context.Context) error {
	secret, err := v.client.Auth().Token().LookupSelfWithContext(ctx)
	if err != nil {
		return v.login(ctx)
	}

	ttl, _ := secret.Data["ttl"].(int64)
	explicitMaxTTL, _ := secret.Data["explicit_max_ttl"].(int64)
	renewable, _ := secret.Data["renewable"].(bool)

	switch {
	case renewable && explicitMaxTTL > ttl+10 && ttl < 10:
		renewed, err := v.client.Auth().Token().RenewSelfWithContext(ctx, 0)
		if err != nil {
			return fmt.Errorf("keycustody: renewing vault token: %w", err)
		}
		v.client.SetToken(renewed.Auth.ClientToken)
		return nil
	case ttl > 10:
		return nil
	default:
		return v.login(ctx)
	}
}

// PutPassword writes password to mount/path under the "pw" field.
func (v *VaultStore) PutPassword(ctx context.Context, mount, path, password string) error {
	if err := v.EnsureToken(ctx); err != nil {
		return err
	}
	kv := v.client.KVv2(mount)
	if _, err := kv.Put(ctx, path, map[string]interface{}{"pw": password}); err != nil {
		return fmt.Errorf("keycustody: vault put %s/%s: %w", mount, path, err)
	}
	return nil
}

// GetPassword reads the "pw" field from mount/path.
func (v *VaultStore) GetPassword(ctx context.Context, mount, path string) (string, error) {
	if err := v.EnsureToken(ctx); err != nil {
		return "", err
	}
	kv := v.client.KVv2(mount)
	secret, err := kv.Get(ctx, path)
	if err != nil {
		return "", fmt.Errorf("keycustody: vault get %s/%s: %w", mount, path, err)
	}
	pw, ok := secret.Data["pw"].(string)
	if !ok {
		return "", ErrSecretNotFound
	}
	return pw, nil
}
