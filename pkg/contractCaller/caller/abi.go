package caller

// SentientABI is the subset of the Sentient contract used by the client.
const SentientABI = `[
  {"type":"function","name":"registerPublicKey","stateMutability":"nonpayable",
   "inputs":[{"name":"keyChunks","type":"bytes32[4]"},{"name":"signature","type":"bytes"}],"outputs":[]},
  {"type":"function","name":"publishMessage","stateMutability":"nonpayable",
   "inputs":[{"name":"recipient","type":"address"},{"name":"ciphertext","type":"string"},{"name":"signature","type":"bytes"}],"outputs":[]},
  {"type":"function","name":"pingRequest","stateMutability":"nonpayable",
   "inputs":[{"name":"key","type":"bytes32"},{"name":"signature","type":"bytes"}],"outputs":[]},
  {"type":"function","name":"getPublicKey","stateMutability":"view",
   "inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"bytes32[4]"}]}
]`
