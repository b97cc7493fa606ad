package keyring

const schema = `
CREATE TABLE IF NOT EXISTS Names (
    Id   INTEGER PRIMARY KEY AUTOINCREMENT,
    Name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS PublicKeys (
    Id        INTEGER PRIMARY KEY AUTOINCREMENT,
    NameId    INTEGER NOT NULL UNIQUE REFERENCES Names(Id) ON DELETE CASCADE ON UPDATE CASCADE,
    PublicKey BLOB NOT NULL CHECK (LENGTH(PublicKey) = 32)
);
CREATE TABLE IF NOT EXISTS PrivateKeys (
    Id         INTEGER PRIMARY KEY AUTOINCREMENT,
    NameId     INTEGER NOT NULL UNIQUE REFERENCES Names(Id) ON DELETE CASCADE ON UPDATE CASCADE,
    PrivateKey BLOB NOT NULL CHECK (LENGTH(PrivateKey) = 32)
);
CREATE TRIGGER IF NOT EXISTS trg_pubkeys_cleanup AFTER DELETE ON PublicKeys
WHEN OLD.NameId NOT IN (SELECT NameId FROM PrivateKeys)
BEGIN DELETE FROM Names WHERE Id = OLD.NameId; END;
CREATE TRIGGER IF NOT EXISTS trg_privkeys_cleanup AFTER DELETE ON PrivateKeys
WHEN OLD.NameId NOT IN (SELECT NameId FROM PublicKeys)
BEGIN DELETE FROM Names WHERE Id = OLD.NameId; END;
`
