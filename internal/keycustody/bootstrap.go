package keycustody

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	vaultapi "github.com/hashicorp/vault/api"
)

// BootstrapConfig names the unix-socket sidecar and file handoff a
// wrapped-secret-id bootstrap exchanges with a deployment's secret
// distributor before the process ever touches a raw AppRole secret.
type BootstrapConfig struct {
	SocketPath string // VSOCKET_PATH
	RoleName   string // VROLE_NAME, used as the sidecar's request path segment
	RoleID     string // VROLE_ID
	SecretFile string // local path the sidecar writes the wrapped token to, SPATH
	VaultAddr  string
	Namespace  string
}

// RequestWrappedSecretID asks a local sidecar (reachable over a unix domain
// socket) to deliver a single-use wrapped AppRole secret-id, then unwraps it
// against Vault and exchanges it for a full AppRole login. It returns the
// resulting client token; callers set it as VAULT_TOKEN for a VaultStore.
func RequestWrappedSecretID(ctx context.Context, cfg BootstrapConfig) (string, error) {
	httpClient := &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", cfg.SocketPath)
			},
		},
		Timeout: time.Second,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://unix/auth/"+cfg.RoleName, nil)
	if err != nil {
		return "", fmt.Errorf("keycustody: building secret request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("keycustody: requesting wrapped secret-id: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("keycustody: secret request not accepted: status %d", resp.StatusCode)
	}

	wrappedToken, err := readWrappedToken(cfg.SecretFile)
	if err != nil {
		return "", err
	}

	secretID, err := unwrapSecretID(ctx, cfg.VaultAddr, cfg.Namespace, wrappedToken)
	if err != nil {
		return "", err
	}

	return loginAppRole(ctx, cfg.VaultAddr, cfg.Namespace, cfg.RoleID, secretID)
}

// readWrappedToken reads and deletes the wrapped token the sidecar left
// behind once its unix-socket ack confirmed delivery.
func readWrappedToken(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("keycustody: reading wrapped secret file: %w", err)
	}
	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("keycustody: removing wrapped secret file: %w", err)
	}
	return string(raw), nil
}

// unwrapSecretID exchanges a single-use wrapping token for the AppRole
// secret-id it wraps via Vault's sys/wrapping/unwrap endpoint.
func unwrapSecretID(ctx context.Context, addr, namespace, wrappedToken string) (string, error) {
	clientCfg := vaultapi.DefaultConfig()
	clientCfg.Address = addr
	client, err := vaultapi.NewClient(clientCfg)
	if err != nil {
		return "", fmt.Errorf("keycustody: building unwrap client: %w", err)
	}
	if namespace != "" {
		client.SetNamespace(namespace)
	}
	client.SetToken(wrappedToken)

	secret, err := client.Logical().UnwrapWithContext(ctx, "")
	if err != nil {
		return "", fmt.Errorf("keycustody: unwrapping secret-id: %w", err)
	}
	secretID, ok := secret.Data["secret_id"].(string)
	if !ok {
		return "", fmt.Errorf("keycustody: unwrap response missing secret_id")
	}
	return secretID, nil
}

// loginAppRole exchanges a role-id/secret-id pair for a Vault client token.
func loginAppRole(ctx context.Context, addr, namespace, roleID, secretID string) (string, error) {
	clientCfg := vaultapi.DefaultConfig()
	clientCfg.Address = addr
	client, err := vaultapi.NewClient(clientCfg)
	if err != nil {
		return "", fmt.Errorf("keycustody: building login client: %w", err)
	}
	if namespace != "" {
		client.SetNamespace(namespace)
	}

	secret, err := client.Logical().WriteWithContext(ctx, "auth/approle/login", map[string]interface{}{
		"role_id":   roleID,
		"secret_id": secretID,
	})
	if err != nil {
		return "", fmt.Errorf("keycustody: approle login: %w", err)
	}
	if secret == nil || secret.Auth == nil {
		return "", fmt.Errorf("keycustody: approle login returned no auth info")
	}
	return secret.Auth.ClientToken, nil
}
