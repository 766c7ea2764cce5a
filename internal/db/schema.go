package db

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    company       TEXT,
    role          TEXT NOT NULL DEFAULT 'buyer' CHECK (role IN ('admin', 'seller', 'buyer')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS listings (
    id           INTEGER PRIMARY KEY,
    seller_id    INTEGER NOT NULL REFERENCES users(id),
    title        TEXT NOT NULL,
    description  TEXT,
    material     TEXT NOT NULL CHECK (material IN ('plastic', 'paper', 'metal', 'glass', 'e-waste', 'organic', 'textile')),
    price_per_kg REAL NOT NULL CHECK (price_per_kg > 0),
    quantity_kg  REAL NOT NULL CHECK (quantity_kg > 0),
    location     TEXT,
    photo        BLOB,
    photo_mime   TEXT,
    status       TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'closed')),
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at   DATETIME
);

CREATE TABLE IF NOT EXISTS offers (
    id            TEXT PRIMARY KEY,
    listing_id    INTEGER NOT NULL REFERENCES listings(id),
    buyer_id      INTEGER NOT NULL REFERENCES users(id),
    buyer_name    TEXT NOT NULL,
    buyer_company TEXT,
    price_per_kg  REAL NOT NULL CHECK (price_per_kg > 0),
    quantity_kg   REAL NOT NULL CHECK (quantity_kg > 0),
    message       TEXT,
    status        TEXT NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING', 'ACCEPTED', 'REJECTED', 'COUNTERED', 'EXPIRED')),
    parent_id     TEXT REFERENCES offers(id),
    root_id       TEXT NOT NULL,
    expires_at    DATETIME NOT NULL,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_offers_listing ON offers(listing_id);
CREATE INDEX IF NOT EXISTS idx_offers_buyer ON offers(buyer_id);

CREATE TABLE IF NOT EXISTS orders (
    id             TEXT PRIMARY KEY,
    offer_id       TEXT NOT NULL UNIQUE REFERENCES offers(id),
    listing_id     INTEGER NOT NULL REFERENCES listings(id),
    buyer_id       INTEGER NOT NULL REFERENCES users(id),
    seller_id      INTEGER NOT NULL REFERENCES users(id),
    price_per_kg   REAL NOT NULL CHECK (price_per_kg > 0),
    quantity_kg    REAL NOT NULL CHECK (quantity_kg > 0),
    status         TEXT NOT NULL DEFAULT 'CREATED' CHECK (status IN ('CREATED', 'CONFIRMED', 'IN_TRANSIT', 'DELIVERED', 'CANCELLED')),
    payment_status TEXT NOT NULL DEFAULT 'UNPAID' CHECK (payment_status IN ('UNPAID', 'PAID', 'REFUNDED')),
    payment_method TEXT,
    pickup_date    DATETIME,
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_orders_buyer ON orders(buyer_id);
CREATE INDEX IF NOT EXISTS idx_orders_seller ON orders(seller_id);

CREATE TABLE IF NOT EXISTS order_notes (
    id          INTEGER PRIMARY KEY,
    order_id    TEXT NOT NULL REFERENCES orders(id),
    author_id   INTEGER NOT NULL REFERENCES users(id),
    author_name TEXT NOT NULL,
    is_buyer    INTEGER NOT NULL DEFAULT 0,
    body        TEXT NOT NULL,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS notifications (
    id         INTEGER PRIMARY KEY,
    user_id    INTEGER NOT NULL REFERENCES users(id),
    kind       TEXT NOT NULL,
    message    TEXT NOT NULL,
    ref        TEXT,
    read_at    DATETIME,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`
