package payu

import (
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// hashInput holds the fields covered by the gateway's integrity hash.
type hashInput struct {
	TxnID       string
	Amount      string
	ProductInfo string
	Firstname   string
	Email       string
	UDF         [5]string
	Status      string
}

// requestHash signs the outbound request:
// sha512(key|txnid|amount|productinfo|firstname|email|udf1|udf2|udf3|udf4|udf5|salt)
func (c *Client) requestHash(in hashInput) string {
	parts := []string{
		c.key, in.TxnID, in.Amount, in.ProductInfo, in.Firstname, in.Email,
		in.UDF[0], in.UDF[1], in.UDF[2], in.UDF[3], in.UDF[4],
		c.salt,
	}
	return sha512Hex(strings.Join(parts, "|"))
}

// responseHash is what the gateway computes for a callback, with the field
// order reversed and the declared status spliced in:
// sha512(salt|status|udf5|udf4|udf3|udf2|udf1|email|firstname|productinfo|amount|txnid|key)
func (c *Client) responseHash(in hashInput) string {
	parts := []string{
		c.salt, in.Status,
		in.UDF[4], in.UDF[3], in.UDF[2], in.UDF[1], in.UDF[0],
		in.Email, in.Firstname, in.ProductInfo, in.Amount, in.TxnID,
		c.key,
	}
	return sha512Hex(strings.Join(parts, "|"))
}

func sha512Hex(s string) string {
	sum := sha512.Sum512([]byte(s))
	return hex.EncodeToString(sum[:])
}
