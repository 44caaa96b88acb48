package crypto

import "crypto/sha256"

// PublicKeyFingerprintHeader domain-separates PublicKeyFingerprint from other digests.
var PublicKeyFingerprintHeader = []byte("CHAINKEY_RSA_PUBLIC_KEY_FINGERPRINT_V1")

// CalculateSignableDigest returns sha256(header || 0x00 || data).
func CalculateSignableDigest(header, data []byte) []byte {
	digest := sha256.New()
	digest.Write(header)
	digest.Write([]byte{0x00}) // separator
	digest.Write(data)
	return digest.Sum(nil)
}

// PublicKeyFingerprint commits to the full PEM text. Unlike the on-chain chunks it is lossless.
func PublicKeyFingerprint(publicKeyPEM string) []byte {
	return CalculateSignableDigest(PublicKeyFingerprintHeader, []byte(publicKeyPEM))
}
