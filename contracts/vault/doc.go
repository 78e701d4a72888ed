/*
Package vault implements NFT Vault contract which holds NEP-11 assets in
custody under dual authorization.

An asset owner deposits a token naming a second signer. The token stays in the
vault until the owner withdraws it, and withdrawal is possible only while the
second signer's approval is in place. Neither party can move the asset alone:
the second signer can't withdraw, the owner can't withdraw without approval.
The second signer is fixed at deposit and can't be changed.

Assets are deposited either with DepositNFT method (the vault pulls the token
from the owner) or by a direct NEP-11 transfer to the vault with the second
signer script hash as transfer data. In both cases the collection contract
must call onNEP11Payment of the vault.

Every method is executed within a single transaction, so any failure
(including a refused asset transfer) reverts all custody changes made by the
call.

# Contract notifications

Deposit notification. This notification is produced when an asset is put
into custody.

	Deposit:
	  - name: collection
	    type: Hash160
	  - name: tokenID
	    type: ByteArray
	  - name: owner
	    type: Hash160
	  - name: secondSigner
	    type: Hash160

Approval notification. This notification is produced when the second signer
grants or revokes withdrawal approval.

	Approval:
	  - name: collection
	    type: Hash160
	  - name: tokenID
	    type: ByteArray
	  - name: approved
	    type: Boolean

Withdraw notification. This notification is produced when an asset is
returned to its owner.

	Withdraw:
	  - name: collection
	    type: Hash160
	  - name: tokenID
	    type: ByteArray
	  - name: owner
	    type: Hash160
*/
package vault

/*
Contract storage model.

# Summary
Key-value storage format:
  - 'r' + <interop.Hash160> + ripemd160(<token ID>) -> std.Serialize(Custody)
    custody entry of the asset (here Custody is a structure defined in current
    package)
  - 'p' + <interop.Hash160> + ripemd160(<token ID>) -> interop.Hash160
    depositor of the asset being transferred by DepositNFT; exists only
    within the DepositNFT invocation

# Custody
Contract stores exactly one entry per asset held. The entry is created on
deposit, only its approval flag changes afterwards, and it is removed on
withdrawal.
*/
