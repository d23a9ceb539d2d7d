package tools

import "encoding/json"

const emptySchema = `{"type": "object", "properties": {}}`

// Definitions returns the tool catalogue with JSON input schemas.
func Definitions() []Tool {
	return []Tool{
		{
			Name:        "getServiceInfo",
			Description: "Get MCP service information and status",
			InputSchema: json.RawMessage(emptySchema),
		},
		{
			Name:        "getNetworkInfo",
			Description: "Get Plasma network information: chain ID, latest block, gas price",
			InputSchema: json.RawMessage(emptySchema),
		},
		{
			Name:        "getAccountBalance",
			Description: "Get XPL balance and nonce for an address (defaults to the configured wallet)",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"address": {
						"type": "string",
						"pattern": "^0x[a-fA-F0-9]{40}$",
						"description": "Address to check (0x...)"
					}
				}
			}`),
		},
		{
			Name:        "sendTransaction",
			Description: "Send a custom transaction from the configured wallet and wait for the receipt",
			Writes:      true,
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"to": {
						"type": "string",
						"pattern": "^0x[a-fA-F0-9]{40}$",
						"description": "Recipient address"
					},
					"value": {
						"type": "string",
						"description": "Amount of XPL to send, as a decimal (e.g. \"0.5\")"
					},
					"data": {
						"type": "string",
						"description": "Hex calldata (0x...)"
					},
					"gasLimit": {
						"type": "string",
						"description": "Gas limit as an integer; estimated when omitted"
					},
					"gasPrice": {
						"type": "string",
						"description": "Gas price in gwei; current network price when omitted"
					}
				},
				"required": ["to"]
			}`),
		},
		{
			Name:        "sendXPL",
			Description: "Send XPL from the configured wallet to an address",
			Writes:      true,
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"to": {
						"type": "string",
						"pattern": "^0x[a-fA-F0-9]{40}$",
						"description": "Recipient address"
					},
					"amount": {
						"type": "string",
						"pattern": "^\\d+\\.?\\d*$",
						"description": "Amount of XPL as a decimal (e.g. \"1.5\")"
					}
				},
				"required": ["to", "amount"]
			}`),
		},
		{
			Name:        "getTransactionStatus",
			Description: "Check transaction status by hash",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"txHash": {
						"type": "string",
						"pattern": "^0x[a-fA-F0-9]{64}$",
						"description": "Transaction hash"
					}
				},
				"required": ["txHash"]
			}`),
		},
		{
			Name:        "requestFaucet",
			Description: "Request testnet XPL from a faucet, or get manual instructions",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"address": {
						"type": "string",
						"pattern": "^0x[a-fA-F0-9]{40}$",
						"description": "Address to fund"
					},
					"faucetName": {
						"type": "string",
						"enum": ["gasZip", "quickNode"],
						"description": "Faucet to use (default gasZip)"
					}
				},
				"required": ["address"]
			}`),
		},
		{
			Name:        "estimateGas",
			Description: "Estimate gas and cost for a transaction",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"from": {
						"type": "string",
						"pattern": "^0x[a-fA-F0-9]{40}$",
						"description": "Sender address"
					},
					"to": {
						"type": "string",
						"pattern": "^0x[a-fA-F0-9]{40}$",
						"description": "Recipient address"
					},
					"value": {
						"type": "string",
						"description": "Amount of XPL as a decimal"
					},
					"data": {
						"type": "string",
						"description": "Hex calldata (0x...)"
					}
				},
				"required": ["from", "to"]
			}`),
		},
		{
			Name:        "getLatestBlocks",
			Description: "Get summaries of the most recent blocks",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"count": {
						"type": "integer",
						"minimum": 1,
						"maximum": 20,
						"default": 5,
						"description": "Number of blocks to return"
					}
				}
			}`),
		},
		{
			Name:        "getGasPrice",
			Description: "Get the current gas price and base fee",
			InputSchema: json.RawMessage(emptySchema),
		},
		{
			Name:        "getTokenInfo",
			Description: "Get token metadata by address or symbol (XPL, USDT, ...)",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"tokenAddress": {
						"type": "string",
						"description": "Token contract address or known symbol"
					}
				},
				"required": ["tokenAddress"]
			}`),
		},
	}
}
